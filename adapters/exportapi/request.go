package exportapi

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/goliatone/go-export/export"
)

// Request provides minimal request access for transport adapters, so the
// Controller never depends on fiber or net/http directly.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Header(name string) string
	Query(name string) string
	QueryValues() map[string][]string
	Param(name string) string
	Body() io.ReadCloser
}

// requestBody is the POST /export/{type} JSON payload (spec §6.2).
type requestBody struct {
	Template      string          `json:"template"`
	Format        export.Format   `json:"format,omitempty"`
	Filename      string          `json:"filename,omitempty"`
	SheetName     string          `json:"sheet_name,omitempty"`
	Data          []export.Record `json:"data,omitempty"`
	Filters       *filterPayload  `json:"filters,omitempty"`
	ChunkSize     int             `json:"chunk_size,omitempty"`
	ForceChunking bool            `json:"force_chunking,omitempty"`
	Options       optionsPayload  `json:"options,omitempty"`
}

type optionsPayload struct {
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

type filterPayload struct {
	ProgramID string              `json:"program_id,omitempty"`
	DateFrom  string              `json:"date_from,omitempty"`
	DateTo    string              `json:"date_to,omitempty"`
	Equals    map[string]string   `json:"equals,omitempty"`
	In        map[string][]string `json:"in,omitempty"`
	Exists    []string            `json:"exists,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	SortBy    string              `json:"sort_by,omitempty"`
	SortOrder string              `json:"sort_order,omitempty"`
}

func (p filterPayload) toFilterSpec() (export.FilterSpec, error) {
	spec := export.FilterSpec{
		ProgramID: p.ProgramID,
		Equals:    p.Equals,
		In:        p.In,
		Exists:    p.Exists,
		Limit:     p.Limit,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
	}
	if p.DateFrom != "" {
		t, err := parseDate(p.DateFrom)
		if err != nil {
			return export.FilterSpec{}, export.NewError(export.KindValidation, "invalid date_from", err)
		}
		spec.DateFrom = &t
	}
	if p.DateTo != "" {
		t, err := parseDate(p.DateTo)
		if err != nil {
			return export.FilterSpec{}, export.NewError(export.KindValidation, "invalid date_to", err)
		}
		spec.DateTo = &t
	}
	return spec, nil
}

// DecodeRequest builds a validated-shape export.ExportRequest from the
// path's export type and the POST body (spec §6.1, §6.2). Validation
// proper (step 1 of the Coordinator's pipeline) happens downstream in
// export.validateRequest; this only decodes the wire shape.
func DecodeRequest(req Request, exportType export.ExportType) (export.ExportRequest, error) {
	if req == nil {
		return export.ExportRequest{}, export.NewError(export.KindInternal, "request is nil", nil)
	}
	body := req.Body()
	if body == nil {
		return export.ExportRequest{}, export.NewError(export.KindValidation, "request body is required", nil)
	}
	defer body.Close()

	var payload requestBody
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return export.ExportRequest{}, export.NewError(export.KindValidation, "invalid request payload", err)
	}

	template := payload.Template
	if template == "" {
		template = "standard"
	}

	out := export.ExportRequest{
		ExportType:     exportType,
		TemplateName:   template,
		OutputFormat:   payload.Format,
		FilenameHint:   payload.Filename,
		SheetLabelHint: payload.SheetName,
		ChunkSize:      payload.ChunkSize,
		ForceChunking:  payload.ForceChunking,
	}
	if out.OutputFormat == "" {
		out.OutputFormat = export.FormatSpreadsheet
	}

	switch {
	case payload.Data != nil:
		out.Data = export.DataSource{InlineRows: payload.Data}
	case payload.Filters != nil:
		filters, err := payload.Filters.toFilterSpec()
		if err != nil {
			return export.ExportRequest{}, err
		}
		if filters.SortBy == "" {
			filters.SortBy = payload.Options.SortBy
		}
		if filters.SortOrder == "" {
			filters.SortOrder = payload.Options.SortOrder
		}
		out.Data = export.DataSource{Filters: &filters}
	}

	return out, nil
}

// FilterSpecFromQuery builds an export.FilterSpec from URL query
// parameters, for transports that prefer a GET-with-query-string shape
// over a POST body (e.g. a definitions/query preview endpoint). Keys use
// the "field__op" convention (e.g. "status__in", "email__eq"); see
// decoder_query.go.
func FilterSpecFromQuery(values map[string][]string) (export.FilterSpec, error) {
	return decodeFilterQuery(values)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
