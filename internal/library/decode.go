package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"typeweave/internal/diag"
)

// Decode parses a library file. Syntax errors are reported as LibParseError
// and yield a nil document; unknown keys only warn.
func Decode(path string, data []byte, r diag.Reporter) *Document {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		ReportParseError(r, diag.LibParseError, path, err)
		return nil
	}
	ReportUndecoded(r, diag.LibParseError, path, md)
	if strings.TrimSpace(doc.Library.Name) == "" {
		diag.ReportError(r, diag.LibParseError, diag.Location{Path: path}, "missing [library].name").Emit()
		return nil
	}
	return &doc
}

// ReportUndecoded warns about keys that no field consumed, which are
// usually typos.
func ReportUndecoded(r diag.Reporter, code diag.Code, path string, md toml.MetaData) {
	for _, key := range md.Undecoded() {
		diag.ReportWarning(r, code, diag.Location{Path: path, Subject: key.String()}, fmt.Sprintf("unknown key %q", key.String())).Emit()
	}
}

// ReportParseError reports a TOML decoding error at its line.
func ReportParseError(r diag.Reporter, code diag.Code, path string, err error) {
	var perr toml.ParseError
	if errors.As(err, &perr) {
		at := diag.Location{Path: fmt.Sprintf("%s:%d", path, perr.Position.Line)}
		diag.ReportError(r, code, at, perr.Message).Emit()
		return
	}
	diag.ReportError(r, code, diag.Location{Path: path}, err.Error()).Emit()
}
