package exportapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-export/export"
)

// decodeFilterQuery converts "field__op" URL query parameters (e.g.
// "status__in=approved,pending", "email__eq=a@b.com") into an
// export.FilterSpec. This is the rewritten form of the teacher's
// sources/crud query-param decoder, adapted to FilterSpec's closed
// predicate set instead of an open Filter/Op list.
func decodeFilterQuery(values map[string][]string) (export.FilterSpec, error) {
	spec := export.FilterSpec{}

	for key, vals := range values {
		if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
			continue
		}
		value := vals[0]

		switch key {
		case "program_id":
			spec.ProgramID = value
			continue
		case "date_from":
			spec.DateFrom = parsedTimePtr(value)
			continue
		case "date_to":
			spec.DateTo = parsedTimePtr(value)
			continue
		case "exists":
			spec.Exists = splitCSV(value)
			continue
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil {
				return export.FilterSpec{}, export.NewError(export.KindValidation, "invalid limit", err)
			}
			spec.Limit = n
			continue
		case "sort_by":
			spec.SortBy = value
			continue
		case "sort_order":
			spec.SortOrder = value
			continue
		}

		field, op := splitFieldOp(key)
		if field == "" {
			continue
		}
		switch op {
		case "eq", "":
			if spec.Equals == nil {
				spec.Equals = make(map[string]string)
			}
			spec.Equals[field] = value
		case "in":
			if spec.In == nil {
				spec.In = make(map[string][]string)
			}
			spec.In[field] = splitCSV(value)
		}
	}

	return spec, nil
}

// splitFieldOp splits a "field__op" key, defaulting op to "eq" when absent,
// mirroring the teacher's query_params.go convention.
func splitFieldOp(key string) (field, op string) {
	parts := strings.SplitN(key, "__", 2)
	field = strings.TrimSpace(parts[0])
	op = "eq"
	if len(parts) == 2 {
		if candidate := strings.TrimSpace(parts[1]); candidate != "" {
			op = candidate
		}
	}
	return field, op
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsedTimePtr(raw string) *time.Time {
	t, err := parseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}
