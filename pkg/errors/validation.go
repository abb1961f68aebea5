package errors

import (
	"strings"
	"unicode"
)

// MaxNodes bounds the node count accepted at the input boundary. A complete
// graph of this size already has ~12.5M edges.
const MaxNodes = 5000

// Layouts lists the Graphviz layout engines accepted as a layout hint.
var Layouts = map[string]bool{
	"dot":       true,
	"neato":     true,
	"fdp":       true,
	"sfdp":      true,
	"circo":     true,
	"twopi":     true,
	"osage":     true,
	"patchwork": true,
}

// ValidateNodeCount checks the node count supplied by the user.
// Counts must be positive and at most MaxNodes.
func ValidateNodeCount(n int) error {
	if n <= 0 {
		return New(ErrCodeInvalidSize, "node count must be positive, got %d", n)
	}
	if n > MaxNodes {
		return New(ErrCodeInvalidSize, "node count too large: %d (max %d)", n, MaxNodes)
	}
	return nil
}

// ValidatePercentage checks that a removal percentage lies in [0, 100].
func ValidatePercentage(p int) error {
	if p < 0 || p > 100 {
		return New(ErrCodeInvalidConfig, "percentage must be between 0 and 100, got %d", p)
	}
	return nil
}

// ValidateLayout checks that layout names a known Graphviz layout engine.
func ValidateLayout(layout string) error {
	if !Layouts[layout] {
		return New(ErrCodeInvalidLayout, "unknown layout %q (must be one of: dot, neato, fdp, sfdp, circo, twopi, osage, patchwork)", layout)
	}
	return nil
}

// ValidatePath validates an output base path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "path too long (max 500 characters)")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null byte")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	return nil
}
