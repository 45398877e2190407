// Package config holds the run configuration assembled from CLI flags, with
// environment fallbacks for the knobs that rarely change between runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// Required run parameters.
	Location string // base directory; relative values resolve under $HOME
	Folder   string // input folder name under Location
	Excel    string // output workbook base name
	DocType  string // keywords profile to use

	// Search behavior.
	ContextTerms int    // chained-search hop count
	ExtraTerms   string // comma-separated additional terms
	Serials      bool   // enable serial-number search
	Trace        bool   // record search chains in output

	// OCR.
	Language string // tesseract language code

	// Output.
	Quiet  bool // errors only on the console
	Report bool // write an HTML run report next to the workbook

	// Resources.
	Workers      int    // document worker count; 1 = sequential
	KeywordsPath string // explicit keywords file location
}

// Defaults returns a Config seeded from the environment.
func Defaults() Config {
	return Config{
		Language:     envOr("DOCSCAN_LANGUAGE", "spa"),
		Workers:      envInt("DOCSCAN_WORKERS", 1),
		KeywordsPath: os.Getenv("DOCSCAN_KEYWORDS"),
	}
}

func (c Config) Validate() error {
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	if c.Folder == "" {
		return fmt.Errorf("folder is required")
	}
	if c.Excel == "" {
		return fmt.Errorf("output file name is required")
	}
	if c.DocType == "" {
		return fmt.Errorf("doc-type is required")
	}
	if c.ContextTerms < 0 {
		return fmt.Errorf("context-terms must be >= 0")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	return nil
}

// InputDir resolves the input folder path. A relative location is taken
// under the user's home directory, matching how the tool is usually pointed
// at Desktop, Documents, Downloads and the like.
func (c Config) InputDir() (string, error) {
	base := c.Location
	if !filepath.IsAbs(base) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, base)
	}
	dir := filepath.Join(base, c.Folder)
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("input folder %s is not a directory", dir)
	}
	return dir, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
