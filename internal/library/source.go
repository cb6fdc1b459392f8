package library

import (
	"fmt"
	"os"

	"typeweave/internal/diag"
	"typeweave/internal/project"
)

// Source is one library file ready to be declared.
type Source struct {
	// Path is the file on disk; Display is how diagnostics name it.
	Path    string
	Display string
	Hash    project.Digest
	Doc     *Document
	// Cached reports whether Doc came from the disk cache.
	Cached bool
}

// Read loads and decodes the library at path. A usable cache entry for the
// file content skips TOML decoding; a corrupted one is reported, dropped and
// replaced. It returns nil when the file cannot be used.
func Read(path, display string, cache *DiskCache, r diag.Reporter) *Source {
	if display == "" {
		display = path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		diag.ReportError(r, diag.IOLoadFileError, diag.Location{Path: display}, fmt.Sprintf("failed to read library: %v", err)).Emit()
		return nil
	}
	src := &Source{Path: path, Display: display, Hash: project.HashBytes(data)}

	doc, ok, err := cache.Get(src.Hash)
	switch {
	case err != nil:
		diag.ReportWarning(r, diag.LibCacheCorrupted, diag.Location{Path: display}, fmt.Sprintf("ignoring cached library: %v", err)).Emit()
		_ = cache.Drop(src.Hash)
	case ok:
		src.Doc = doc
		src.Cached = true
		return src
	}

	counted := &countingReporter{next: r}
	src.Doc = Decode(display, data, counted)
	if src.Doc == nil {
		return nil
	}
	if counted.n == 0 {
		if err := cache.Put(src.Hash, src.Doc); err != nil {
			diag.ReportWarning(r, diag.LibCacheCorrupted, diag.Location{Path: display}, fmt.Sprintf("failed to cache library: %v", err)).Emit()
		}
	}
	return src
}

// countingReporter forwards to next and counts what passed through.
type countingReporter struct {
	next diag.Reporter
	n    int
}

func (c *countingReporter) Report(code diag.Code, sev diag.Severity, primary diag.Location, msg string, notes []diag.Note) {
	c.n++
	if c.next != nil {
		c.next.Report(code, sev, primary, msg, notes)
	}
}
