package excel

import (
	"io"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheet = gerrors.New("workbook has no sheets")

// ReadRows decodes an xlsx workbook and returns the cell values of the
// first sheet, row by row. Rows may be ragged; the caller pads short rows
// against its header.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	return f.GetRows(sheet)
}
