package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for declared file types the extractor
// does not handle. It is terminal: retrying cannot succeed.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ExtractionError wraps a decode or parse failure for a supported type.
// The extractor never returns partial text alongside an error.
type ExtractionError struct {
	FileType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract text from %s file: %v", e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Text converts raw file bytes into plain UTF-8 text based on the declared
// file type tag (the Document.type column, not a sniffed MIME type).
func Text(data []byte, fileType string) (string, error) {
	switch fileType {
	case "pdf":
		return viaDocconv(data, fileType, mimePDF)
	case "docx":
		return viaDocconv(data, fileType, mimeDOCX)
	case "pptx":
		return viaDocconv(data, fileType, mimePPTX)
	case "txt":
		return fromTXT(data)
	case "xlsx":
		return fromXLSX(data)
	case "csv":
		return fromCSV(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

func viaDocconv(data []byte, fileType, mimeType string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", &ExtractionError{FileType: fileType, Err: err}
	}
	return res.Body, nil
}

func fromTXT(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &ExtractionError{FileType: "txt", Err: errors.New("not valid UTF-8")}
	}
	return string(data), nil
}

// fromXLSX walks every sheet in workbook order: each row becomes one line
// of its non-empty cell values space-joined.
func fromXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", &ExtractionError{FileType: "xlsx", Err: err}
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", &ExtractionError{FileType: "xlsx", Err: err}
		}
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			lines = append(lines, strings.Join(cells, " "))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func fromCSV(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &ExtractionError{FileType: "csv", Err: errors.New("not valid UTF-8")}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", &ExtractionError{FileType: "csv", Err: err}
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, strings.Join(record, " "))
	}
	return strings.Join(lines, "\n"), nil
}
