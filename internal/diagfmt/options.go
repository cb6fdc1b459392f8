// Package diagfmt renders diagnostic bags for the terminal and as JSON.
package diagfmt

import (
	"path/filepath"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps paths as reported, which is project-relative.
	PathModeAuto PathMode = iota
	// PathModeAbsolute joins relative paths onto BaseDir.
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}

func formatPath(path string, mode PathMode, base string) string {
	if path == "" {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if filepath.IsAbs(path) || base == "" {
			return path
		}
		return filepath.Join(base, filepath.FromSlash(path))
	case PathModeBasename:
		return filepath.Base(path)
	default:
		return path
	}
}
