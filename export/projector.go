package export

import (
	"context"
	"io"
)

// projector turns a finite Record iterator plus a Template into a finite
// iterator of header-aligned, transformed Rows. Its first element (when
// includeHeader is true) is the header label row; subsequent elements are
// one row per input record. It buffers nothing beyond the one row or header
// currently in flight (spec §4.3).
type projector struct {
	source        RowIterator
	template      Template
	includeHeader bool
	headerSent    bool
	done          bool
}

func newProjector(source RowIterator, tmpl Template, includeHeader bool) *projector {
	return &projector{source: source, template: tmpl, includeHeader: includeHeader}
}

// Next returns io.EOF once the source is exhausted. It is restartable only
// if the underlying source iterator is.
func (p *projector) Next(ctx context.Context) (Row, error) {
	if p.done {
		return nil, io.EOF
	}
	if p.includeHeader && !p.headerSent {
		p.headerSent = true
		return p.headerRow(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, err := p.source.Next(ctx)
	if err != nil {
		if err == io.EOF {
			p.done = true
		}
		return nil, err
	}
	return p.projectRecord(record), nil
}

func (p *projector) Close() error {
	return p.source.Close()
}

func (p *projector) headerRow() Row {
	row := make(Row, len(p.template.Columns))
	for i, col := range p.template.Columns {
		label := col.HeaderLabel
		if label == "" {
			label = col.SourceField
		}
		row[i] = label
	}
	return row
}

func (p *projector) projectRecord(record Record) Row {
	row := make(Row, len(p.template.Columns))
	for i, col := range p.template.Columns {
		row[i] = transformValue(col, record)
	}
	return row
}

// sliceIterator adapts an in-memory []Record (the inline data source) to a
// RowIterator so the Row Projector never needs to know whether rows came
// from an inline request body or a Source Adapter query.
type sliceIterator struct {
	rows  []Record
	index int
}

func newSliceIterator(rows []Record) *sliceIterator {
	return &sliceIterator{rows: rows}
}

func (it *sliceIterator) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.index >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.index]
	it.index++
	return row, nil
}

func (it *sliceIterator) Close() error { return nil }

// rangeIterator restricts an underlying iterator to records
// [from, to] inclusive (1-indexed), for slicing a multi-strategy job's
// chunks out of one resolved row source without buffering the whole set.
type rangeIterator struct {
	base    RowIterator
	from    int
	to      int
	current int
}

func newRangeIterator(base RowIterator, r ChunkRange) *rangeIterator {
	return &rangeIterator{base: base, from: r.From, to: r.To}
}

func (it *rangeIterator) Next(ctx context.Context) (Record, error) {
	for {
		if it.current >= it.to {
			return nil, io.EOF
		}
		record, err := it.base.Next(ctx)
		if err != nil {
			return nil, err
		}
		it.current++
		if it.current < it.from {
			continue
		}
		return record, nil
	}
}

func (it *rangeIterator) Close() error { return nil }
