package export

import (
	"context"
	"encoding/csv"
	"io"
)

// writeCSV streams a projected row iterator into a CSV artifact for the
// explicit csv output_format. It is not used as a fallback when the
// spreadsheet engine fails; that failure is returned to the caller.
func writeCSV(ctx context.Context, rows RowEmitter) ([]byte, int, error) {
	var buf countingBuffer
	w := csv.NewWriter(&buf)

	dataRows := 0
	rowIndex := 0
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
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = value
		}
		if err := w.Write(record); err != nil {
			return nil, 0, NewError(KindArtifactInvalid, "failed to write csv row", err)
		}
		if rowIndex > 0 {
			dataRows++
		}
		rowIndex++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, NewError(KindArtifactInvalid, "csv flush failed", err)
	}
	return buf.Bytes(), dataRows, nil
}

type countingBuffer struct {
	data []byte
}

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *countingBuffer) Bytes() []byte { return b.data }
