package export

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// TransformKind is the closed set of value transformations a ColumnDescriptor
// can name (spec §4.1). The set is closed and enumerated here; there is no
// transformation DSL exposed to callers.
type TransformKind string

const (
	TransformPassthrough      TransformKind = "passthrough"
	TransformStatusMap        TransformKind = "status_map"
	TransformPaymentStatusMap TransformKind = "payment_status_map"
	TransformBooleanYesNo     TransformKind = "boolean_yes_no"
	TransformDateISO          TransformKind = "date_iso"
	TransformDateLocale       TransformKind = "date_locale"
	TransformCurrency         TransformKind = "currency"
	TransformPhoneConcat      TransformKind = "phone_concat"
	TransformJoinLookup       TransformKind = "join_lookup"
	TransformDefaultIfAbsent  TransformKind = "default_if_absent"
)

// formStatusTable is the fixed form_status mapping (spec §4.1).
var formStatusTable = map[int64]string{
	0: "Not started",
	1: "In progress",
	2: "Submitted",
}

// formStatusAliases accepts the legacy string-enum form on input (Open
// Question #1): these normalize to the same integer keys above.
var formStatusAliases = map[string]int64{
	"not_started": 0,
	"in_progress": 1,
	"submitted":   2,
}

// paymentStatusTable is the fixed payment_status mapping (spec §4.1).
var paymentStatusTable = map[int64]string{
	0: "Pending",
	1: "Processing",
	2: "Completed",
	3: "Failed",
	4: "Cancelled",
}

var paymentStatusAliases = map[string]int64{
	"pending":    0,
	"processing": 1,
	"completed":  2,
	"failed":     3,
	"cancelled":  4,
	"canceled":   4,
}

const statusUnknown = "Unknown"

// transformValue applies a ColumnDescriptor's transform_kind to one field of
// one record. It never returns an error: every failure mode maps to a
// defined empty or default output, per spec §4.1's load-bearing rule that a
// single malformed record must never fail a whole export.
func transformValue(col ColumnDescriptor, record Record) string {
	raw, present := record[col.SourceField]

	switch col.TransformKind {
	case "", TransformPassthrough:
		if !present || raw == nil {
			return ""
		}
		return stringifyValue(raw)

	case TransformStatusMap:
		return lookupStatus(raw, present, formStatusTable, formStatusAliases)

	case TransformPaymentStatusMap:
		return lookupStatus(raw, present, paymentStatusTable, paymentStatusAliases)

	case TransformBooleanYesNo:
		if !present {
			return "No"
		}
		b, ok := coerceBool(raw)
		if !ok || !b {
			return "No"
		}
		return "Yes"

	case TransformDateISO:
		if !present {
			return ""
		}
		t, ok := coerceTime(raw)
		if !ok {
			return ""
		}
		if isDateOnly(raw) {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")

	case TransformDateLocale:
		if !present {
			return ""
		}
		t, ok := coerceTime(raw)
		if !ok {
			return ""
		}
		return t.Format("02-01-2006")

	case TransformCurrency:
		if !present {
			return ""
		}
		amount, ok := coerceFloat(raw)
		if !ok {
			return ""
		}
		symbol, _ := col.TransformParams["symbol"].(string)
		return symbol + strconv.FormatFloat(amount, 'f', 2, 64)

	case TransformPhoneConcat:
		countryField, _ := col.TransformParams["country_field"].(string)
		localField, _ := col.TransformParams["local_field"].(string)
		country := stringifyValue(record[countryField])
		local := stringifyValue(record[localField])
		switch {
		case country == "" && local == "":
			return ""
		case country == "":
			return local
		case local == "":
			return country
		default:
			return country + " " + local
		}

	case TransformJoinLookup:
		return joinLookup(record, col.TransformParams)

	case TransformDefaultIfAbsent:
		if present && raw != nil {
			return stringifyValue(raw)
		}
		if def, ok := col.TransformParams["default"]; ok {
			return stringifyValue(def)
		}
		return ""

	default:
		return ""
	}
}

func lookupStatus(raw any, present bool, table map[int64]string, aliases map[string]int64) string {
	if !present || raw == nil {
		return table[sortedDefaultKey(table)]
	}
	if s, ok := raw.(string); ok {
		if key, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
			return table[key]
		}
	}
	key, ok := coerceInt(raw)
	if !ok {
		return statusUnknown
	}
	label, ok := table[key]
	if !ok {
		return statusUnknown
	}
	return label
}

// sortedDefaultKey returns the lowest key of table. A missing or nil field
// is mapped to that key's label; a present value that is not a key of the
// table is mapped to "Unknown" instead.
func sortedDefaultKey(table map[int64]string) int64 {
	keys := make([]int64, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if len(keys) == 0 {
		return 0
	}
	return keys[0]
}

// joinLookup follows a dotted chain of record fields, e.g.
// transform_params {"path": "program.name"}, returning empty on any missing
// link. Record values that are themselves nested maps (map[string]any or
// Record) are supported; anything else breaks the chain.
func joinLookup(record Record, params map[string]any) string {
	path, _ := params["path"].(string)
	if path == "" {
		return ""
	}
	segments := strings.Split(path, ".")

	var current any = record
	for _, seg := range segments {
		switch node := current.(type) {
		case Record:
			v, ok := node[seg]
			if !ok {
				return ""
			}
			current = v
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return ""
			}
			current = v
		default:
			return ""
		}
	}
	return stringifyValue(current)
}

func isDateOnly(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return len(s) == len("2006-01-02") && !strings.ContainsAny(s, "T:")
}

// normalizeCellText applies the Unicode/control-character discipline the
// Workbook Writer requires of every string cell (spec §4.4): NFC
// normalization, stripped control characters other than tab/newline, and a
// 32767-character clamp.
func normalizeCellText(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if runes := []rune(out); len(runes) > 32767 {
		out = string(runes[:32767])
	}
	return out
}

// escapeFormulaPrefix guards against formula injection: a leading =, +, -, @
// is escaped with a leading apostrophe so spreadsheet readers treat the cell
// as text, not a formula (spec §4.4).
func escapeFormulaPrefix(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	default:
		return s
	}
}
