package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"solarops/internal/domain"
)

// SheetName is the worksheet holding exported records.
const SheetName = "Records"

// XLSXWriter streams records into a single-sheet workbook.
type XLSXWriter struct {
	out  io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	row  int
}

// NewXLSXWriter creates an XLSXWriter that writes the finished workbook to w on Close.
func NewXLSXWriter(w io.Writer) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "xlsx: rename sheet")
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "xlsx: stream writer")
	}
	for col, width := range map[int]float64{1: 28, 2: 22, 3: 24, 4: 40, 7: 36, 14: 48, 15: 48, 19: 36} {
		if err := sw.SetColWidth(col, col, width); err != nil {
			_ = f.Close()
			return nil, eris.Wrap(err, "xlsx: column width")
		}
	}
	return &XLSXWriter{out: w, file: f, sw: sw, row: 1}, nil
}

func (w *XLSXWriter) writeRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return eris.Wrap(err, "xlsx: cell name")
	}
	if err := w.sw.SetRow(cell, values); err != nil {
		return eris.Wrapf(err, "xlsx: row %d", w.row)
	}
	w.row++
	return nil
}

// WriteHeader writes the header row.
func (w *XLSXWriter) WriteHeader() error {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	return w.writeRow(values)
}

// WriteRecords appends one row per record. Confidence is written as a number.
func (w *XLSXWriter) WriteRecords(recs []domain.Record) error {
	for i := range recs {
		cells := recordToRow(&recs[i])
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		values[12] = recs[i].Confidence
		if err := w.writeRow(values); err != nil {
			return err
		}
	}
	return nil
}

// Close finishes the stream and writes the workbook.
func (w *XLSXWriter) Close() error {
	defer func() { _ = w.file.Close() }()
	if err := w.sw.Flush(); err != nil {
		return eris.Wrap(err, "xlsx: flush")
	}
	if _, err := w.file.WriteTo(w.out); err != nil {
		return eris.Wrap(err, "xlsx: write")
	}
	return nil
}
