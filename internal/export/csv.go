package export

import (
	"encoding/csv"
	"io"

	"solarops/internal/domain"
)

// BOM is written first so Excel on Windows detects UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter wraps csv.Writer for exporting records.
type CSVWriter struct {
	out io.Writer
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{out: w, csv: csv.NewWriter(w)}
}

// WriteHeader writes the BOM and the header row.
func (w *CSVWriter) WriteHeader() error {
	if _, err := w.out.Write(BOM); err != nil {
		return err
	}
	return w.csv.Write(columns)
}

// WriteRecords converts a batch of records to rows and writes them.
func (w *CSVWriter) WriteRecords(recs []domain.Record) error {
	for i := range recs {
		if err := w.csv.Write(recordToRow(&recs[i])); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered rows and reports any write error.
func (w *CSVWriter) Close() error {
	w.csv.Flush()
	return w.csv.Error()
}
