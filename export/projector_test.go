package export

import (
	"context"
	"io"
	"testing"
)

func testTemplate() Template {
	return Template{
		ExportType: TypeParticipants,
		Name:       "test",
		Columns: []ColumnDescriptor{
			{SourceField: "id", HeaderLabel: "ID", TransformKind: TransformPassthrough},
			{SourceField: "full_name", HeaderLabel: "Full Name", TransformKind: TransformPassthrough},
		},
	}
}

func TestProjector_EmitsHeaderThenDataRows(t *testing.T) {
	source := newSliceIterator([]Record{
		{"id": "1", "full_name": "Ada"},
		{"id": "2", "full_name": "Alan"},
	})
	p := newProjector(source, testTemplate(), true)
	defer p.Close()

	ctx := context.Background()
	header, err := p.Next(ctx)
	if err != nil {
		t.Fatalf("expected header row, got error: %v", err)
	}
	if len(header) != 2 || header[0] != "ID" || header[1] != "Full Name" {
		t.Fatalf("unexpected header row: %v", header)
	}

	row1, err := p.Next(ctx)
	if err != nil || row1[0] != "1" || row1[1] != "Ada" {
		t.Fatalf("unexpected first data row: %v, err=%v", row1, err)
	}

	row2, err := p.Next(ctx)
	if err != nil || row2[0] != "2" || row2[1] != "Alan" {
		t.Fatalf("unexpected second data row: %v, err=%v", row2, err)
	}

	if _, err := p.Next(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestProjector_NoHeaderWhenDisabled(t *testing.T) {
	source := newSliceIterator([]Record{{"id": "1", "full_name": "Ada"}})
	p := newProjector(source, testTemplate(), false)
	defer p.Close()

	row, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("expected first data row, got error: %v", err)
	}
	if row[0] != "1" {
		t.Fatalf("expected data row to come first without a header, got %v", row)
	}
}

func TestProjector_HeaderFallsBackToSourceFieldWhenLabelMissing(t *testing.T) {
	tmpl := Template{Columns: []ColumnDescriptor{{SourceField: "raw_field"}}}
	p := newProjector(newSliceIterator(nil), tmpl, true)
	defer p.Close()

	header, err := p.Next(context.Background())
	if err != nil {
		t.Fatalf("expected header row: %v", err)
	}
	if header[0] != "raw_field" {
		t.Fatalf("expected fallback to source field name, got %q", header[0])
	}
}

func TestSliceIterator_EmptyYieldsImmediateEOF(t *testing.T) {
	it := newSliceIterator(nil)
	_, err := it.Next(context.Background())
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestRangeIterator_SlicesInclusiveOneIndexedRange(t *testing.T) {
	base := newSliceIterator([]Record{
		{"id": "1"}, {"id": "2"}, {"id": "3"}, {"id": "4"}, {"id": "5"},
	})
	it := newRangeIterator(base, ChunkRange{From: 2, To: 4})

	var ids []string
	for {
		rec, err := it.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, rec["id"].(string))
	}
	if len(ids) != 3 || ids[0] != "2" || ids[1] != "3" || ids[2] != "4" {
		t.Fatalf("expected records 2-4 inclusive, got %v", ids)
	}
}

func TestRangeIterator_FromOneIncludesFirstRecord(t *testing.T) {
	base := newSliceIterator([]Record{{"id": "1"}, {"id": "2"}})
	it := newRangeIterator(base, ChunkRange{From: 1, To: 1})

	rec, err := it.Next(context.Background())
	if err != nil || rec["id"] != "1" {
		t.Fatalf("expected record 1, got %v, err=%v", rec, err)
	}
	if _, err := it.Next(context.Background()); err != io.EOF {
		t.Fatalf("expected io.EOF after single-record range, got %v", err)
	}
}
