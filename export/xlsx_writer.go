package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetStripChars  = `{\/?*[]:`
	sheetNameMaxLen  = 31
	artifactMinBytes = 100
	maxColumnWidth   = 60
	minColumnWidth   = 8
)

var archiveSignature = []byte{0x50, 0x4B}

// sheetName derives the workbook's sheet label from the request hint, or the
// "<ExportType> <Mon YYYY>" default, sanitized per spec §4.4.
func sheetName(hint string, exportType ExportType, now time.Time) string {
	name := strings.TrimSpace(hint)
	if name == "" {
		name = fmt.Sprintf("%s %s", titleCase(string(exportType)), now.Format("Jan 2006"))
	}
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(sheetStripChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()
	if len(name) > sheetNameMaxLen {
		name = name[:sheetNameMaxLen]
	}
	if name == "" {
		name = "Sheet1"
	}
	return name
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeXLSX streams a projected row iterator (header row first, if any) into
// a single-sheet workbook byte buffer (spec §4.4). It validates the
// container signature and minimum size before returning success, the hard
// gate spec §4.4 and §8 require.
func writeXLSX(ctx context.Context, rows RowEmitter, label string) ([]byte, int, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	defaultSheet := file.GetSheetName(0)
	if defaultSheet != label {
		if err := file.SetSheetName(defaultSheet, label); err != nil {
			return nil, 0, NewError(KindArtifactInvalid, "failed to set sheet name", err)
		}
	}

	stream, err := file.NewStreamWriter(label)
	if err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "failed to open stream writer", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4050"}, Pattern: 1},
	})
	if err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "failed to build header style", err)
	}

	if err := stream.SetPanes(&excelize.Panes{Freeze: true, Split: false, XSplit: 0, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "failed to freeze header row", err)
	}

	rowIndex := 1
	dataRows := 0
	var colWidths []int
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		row, err := rows.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}
		if colWidths == nil {
			colWidths = make([]int, len(row))
		}

		cells := make([]interface{}, len(row))
		for i, value := range row {
			if i < len(colWidths) && len(value) > colWidths[i] {
				colWidths[i] = len(value)
			}
			if rowIndex == 1 {
				cells[i] = excelize.Cell{StyleID: headerStyle, Value: value}
				continue
			}
			cells[i] = buildXLSXCellValue(value)
		}
		if err := stream.SetRow(cellRef(rowIndex), cells); err != nil {
			return nil, 0, NewError(KindArtifactInvalid, "failed to write row", err)
		}
		if rowIndex > 1 {
			dataRows++
		}
		rowIndex++
	}

	for i, width := range colWidths {
		computed := float64(width) + 2
		if computed > maxColumnWidth {
			computed = maxColumnWidth
		}
		if computed < minColumnWidth {
			computed = minColumnWidth
		}
		_ = stream.SetColWidth(i+1, i+1, computed)
	}

	if err := stream.Flush(); err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "failed to flush workbook", err)
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "failed to serialize workbook", err)
	}

	data := buf.Bytes()
	if err := validateSpreadsheetBytes(data); err != nil {
		return nil, 0, err
	}
	return data, dataRows, nil
}

func cellRef(rowIndex int) string {
	return fmt.Sprintf("A%d", rowIndex)
}

// buildXLSXCellValue escapes formula-prefix characters and normalizes text
// before handing the value to excelize (spec §4.4).
func buildXLSXCellValue(value string) string {
	return escapeFormulaPrefix(normalizeCellText(value))
}

// validateSpreadsheetBytes is the hard gate from spec §4.4 and §8: the
// buffer must begin with the container signature and exceed 100 bytes.
func validateSpreadsheetBytes(data []byte) error {
	if len(data) <= artifactMinBytes {
		return NewError(KindArtifactInvalid, "artifact too small", nil)
	}
	if len(data) < 2 || data[0] != archiveSignature[0] || data[1] != archiveSignature[1] {
		return NewError(KindArtifactInvalid, "artifact missing container signature", nil)
	}
	return nil
}
