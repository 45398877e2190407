package docmodel

// Document is a single input file selected for processing.
type Document struct {
	Name    string // Base file name, e.g. "invoice-03.pdf"
	Path    string // Absolute path to the source file
	TypeTag string // Document-type tag the run was invoked with
	Pages   []Page
}

// Page is one processable unit of a Document. Image documents have exactly
// one page; PDFs have one per rendered page. A page either carries a text
// layer already (Text and Fragments set, NeedsOCR false) or points at an
// image that still has to go through preprocessing and OCR.
type Page struct {
	Index     int    // Zero-based page index within the document
	Label     string // Row identifier, e.g. "invoice-03_page_1"
	ImagePath string // Path to the page image (empty for text-layer pages)
	NeedsOCR  bool

	Text      string     // Extracted text, lowercased and trimmed
	Fragments []Fragment // Positioned text pieces, for table detection
	Rules     []Rule     // Ruling lines detected on the page image
}

// Fragment is a positioned piece of text on a page. Coordinates are in the
// page's own space (pixels for OCR output, points for PDF text layers);
// the table detector only compares them relative to one another.
type Fragment struct {
	Text string
	X    float64
	Y    float64
	W    float64
	H    float64
}

// Rule is a ruling line on a page, used by lattice table detection.
type Rule struct {
	Horizontal bool
	X1, Y1     float64
	X2, Y2     float64
}

// Record is one extracted field, destined for a workbook row.
// Each record traces back to exactly one source page of one document.
type Record struct {
	Source string // Page label of the originating document
	Serial string // Serial-number match, when serial search is enabled
	Key    string // Search term that produced the value
	Value  string
	Trace  string // Chain of term:value hops, only in trace mode
}
