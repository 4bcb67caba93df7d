// Package gradecsv writes grade lists as CSV with the columns
// subject, title, percent, date.
package gradecsv

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dalemusser/stratagrades/internal/domain/models"
)

// Header is the CSV header row.
var Header = []string{"subject", "title", "percent", "date"}

// Options controls spreadsheet-friendly output.
type Options struct {
	BOM  bool // prefix a UTF-8 byte order mark (Excel)
	CRLF bool
}

// Write writes the header and one row per grade, in order.
func Write(w io.Writer, grades []models.Grade, opts Options) error {
	if opts.BOM {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = opts.CRLF

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, g := range grades {
		if err := cw.Write([]string{
			sanitizeField(g.Subject),
			sanitizeField(g.Title),
			strconv.FormatFloat(g.Percent, 'f', -1, 64),
			g.Date,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// sanitizeField neutralizes values a spreadsheet would run as a formula.
func sanitizeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
