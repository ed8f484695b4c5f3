package export

import "sync"

// globalCeiling is the single-file ceiling applied when a template does not
// declare its own (spec §4.2).
const globalCeiling = 25000

// templateRegistry is the static, code-embedded catalog. It is populated once
// at init() and never mutated at runtime (spec §9's "Inheritance in the
// source" note: templates are data, not a type hierarchy), mirroring
// export/registry.go's map-keyed registry shape without exposing a runtime
// Register method.
type templateRegistry struct {
	mu        sync.RWMutex
	templates map[ExportType]map[string]Template
}

var templates = newTemplateRegistry()

func newTemplateRegistry() *templateRegistry {
	return &templateRegistry{templates: make(map[ExportType]map[string]Template)}
}

func (r *templateRegistry) register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.templates[t.ExportType]
	if !ok {
		byName = make(map[string]Template)
		r.templates[t.ExportType] = byName
	}
	byName[t.Name] = t
}

// Lookup resolves a (export_type, template_name) pair. Unknown pairs are a
// validation error (spec §4.2).
func (r *templateRegistry) Lookup(exportType ExportType, name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.templates[exportType]
	if !ok {
		return Template{}, NewError(KindValidation, "unknown export_type", nil)
	}
	tmpl, ok := byName[name]
	if !ok {
		return Template{}, NewError(KindValidation, "unknown template", nil)
	}
	return tmpl, nil
}

// List returns every template registered for an export type, for the
// GET /templates/{type} route.
func (r *templateRegistry) List(exportType ExportType) ([]Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.templates[exportType]
	if !ok {
		return nil, NewError(KindValidation, "unknown export_type", nil)
	}
	out := make([]Template, 0, len(byName))
	for _, tmpl := range byName {
		out = append(out, tmpl)
	}
	return out, nil
}

// ListTemplates returns every template registered for an export type, for
// the GET /templates/{type} route.
func ListTemplates(exportType ExportType) ([]Template, error) {
	return templates.List(exportType)
}

func col(field, label string, kind TransformKind, params map[string]any) ColumnDescriptor {
	return ColumnDescriptor{SourceField: field, HeaderLabel: label, TransformKind: kind, TransformParams: params}
}

func init() {
	templates.register(Template{
		ExportType: TypeParticipants, Name: "standard",
		MaxRecordsSingleFile: 15000, RecommendedChunkSize: 5000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("full_name", "Full Name", TransformPassthrough, nil),
			col("email", "Email", TransformPassthrough, nil),
			col("country", "Country", TransformPassthrough, nil),
			col("institution", "Institution", TransformPassthrough, nil),
			col("phone", "Phone", TransformPassthrough, nil),
			col("category", "Category", TransformPassthrough, nil),
			col("form_status", "Form Status", TransformStatusMap, nil),
			col("payment_status", "Payment Status", TransformPaymentStatusMap, nil),
			col("registration_date", "Registration Date", TransformDateISO, nil),
		},
	})

	templates.register(Template{
		ExportType: TypeParticipants, Name: "detailed",
		MaxRecordsSingleFile: 10000, RecommendedChunkSize: 3000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("full_name", "Full Name", TransformPassthrough, nil),
			col("email", "Email", TransformPassthrough, nil),
			col("country", "Country", TransformPassthrough, nil),
			col("institution", "Institution", TransformPassthrough, nil),
			col("phone", "Phone", TransformPassthrough, nil),
			col("category", "Category", TransformPassthrough, nil),
			col("form_status", "Form Status", TransformStatusMap, nil),
			col("payment_status", "Payment Status", TransformPaymentStatusMap, nil),
			col("registration_date", "Registration Date", TransformDateISO, nil),
			col("gender", "Gender", TransformPassthrough, nil),
			col("birth_date", "Birth Date", TransformDateISO, nil),
			col("education_level", "Education Level", TransformPassthrough, nil),
			col("major", "Major", TransformPassthrough, nil),
			col("emergency_contact_name", "Emergency Contact Name", TransformPassthrough, nil),
			col("emergency_contact_phone", "Emergency Contact Phone", TransformPassthrough, nil),
			col("ambassador_reference", "Ambassador Reference", TransformJoinLookup, map[string]any{"path": "ambassador.name"}),
			col("notes", "Notes", TransformDefaultIfAbsent, map[string]any{"default": ""}),
		},
	})

	templates.register(Template{
		ExportType: TypeParticipants, Name: "summary",
		MaxRecordsSingleFile: 50000, RecommendedChunkSize: 10000,
		Columns: []ColumnDescriptor{
			col("full_name", "Name", TransformPassthrough, nil),
			col("email", "Email", TransformPassthrough, nil),
			col("country", "Country", TransformPassthrough, nil),
			col("category", "Category", TransformPassthrough, nil),
			col("form_status", "Status", TransformStatusMap, nil),
		},
	})

	templates.register(Template{
		ExportType: TypeParticipants, Name: "complete",
		MaxRecordsSingleFile: 5000, RecommendedChunkSize: 2000,
		Columns: completeParticipantColumns(),
	})

	templates.register(Template{
		ExportType: TypePayments, Name: "standard",
		MaxRecordsSingleFile: 15000, RecommendedChunkSize: 5000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("participant_id", "Participant ID", TransformPassthrough, nil),
			col("amount", "Amount", TransformCurrency, nil),
			col("currency", "Currency", TransformPassthrough, nil),
			col("method", "Method", TransformPassthrough, nil),
			col("status", "Status", TransformPaymentStatusMap, nil),
			col("paid_at", "Paid At", TransformDateISO, nil),
			col("transaction_ref", "Transaction Ref", TransformPassthrough, nil),
		},
	})

	templates.register(Template{
		ExportType: TypePayments, Name: "detailed",
		MaxRecordsSingleFile: 10000, RecommendedChunkSize: 3000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("participant_id", "Participant ID", TransformPassthrough, nil),
			col("amount", "Amount", TransformCurrency, nil),
			col("currency", "Currency", TransformPassthrough, nil),
			col("method", "Method", TransformPassthrough, nil),
			col("status", "Status", TransformPaymentStatusMap, nil),
			col("paid_at", "Paid At", TransformDateISO, nil),
			col("transaction_ref", "Transaction Ref", TransformPassthrough, nil),
			col("notes", "Notes", TransformDefaultIfAbsent, map[string]any{"default": ""}),
			col("usd_amount", "USD Amount", TransformCurrency, map[string]any{"symbol": "$"}),
			col("gateway_detail", "Gateway Detail", TransformPassthrough, nil),
		},
	})

	templates.register(Template{
		ExportType: TypeAmbassadors, Name: "standard",
		MaxRecordsSingleFile: 15000, RecommendedChunkSize: 5000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("full_name", "Full Name", TransformPassthrough, nil),
			col("email", "Email", TransformPassthrough, nil),
			col("country", "Country", TransformPassthrough, nil),
			col("referral_code", "Referral Code", TransformPassthrough, nil),
			col("referral_count", "Referral Count", TransformPassthrough, nil),
			col("joined_at", "Joined At", TransformDateISO, nil),
		},
	})

	templates.register(Template{
		ExportType: TypeAmbassadors, Name: "detailed",
		MaxRecordsSingleFile: 10000, RecommendedChunkSize: 3000,
		Columns: []ColumnDescriptor{
			col("id", "ID", TransformPassthrough, nil),
			col("full_name", "Full Name", TransformPassthrough, nil),
			col("email", "Email", TransformPassthrough, nil),
			col("phone", "Phone", TransformPassthrough, nil),
			col("country", "Country", TransformPassthrough, nil),
			col("institution", "Institution", TransformPassthrough, nil),
			col("referral_code", "Referral Code", TransformPassthrough, nil),
			col("referral_count", "Referral Count", TransformPassthrough, nil),
			col("payout_status", "Payout Status", TransformPaymentStatusMap, nil),
			col("joined_at", "Joined At", TransformDateISO, nil),
		},
	})
}

// completeParticipantColumns is the ~36-field participants/complete template
// (spec §4.2: "all known participant fields").
func completeParticipantColumns() []ColumnDescriptor {
	base := []ColumnDescriptor{
		col("id", "ID", TransformPassthrough, nil),
		col("full_name", "Full Name", TransformPassthrough, nil),
		col("email", "Email", TransformPassthrough, nil),
		col("phone", "Phone", TransformPassthrough, nil),
		col("country", "Country", TransformPassthrough, nil),
		col("institution", "Institution", TransformPassthrough, nil),
		col("category", "Category", TransformPassthrough, nil),
		col("form_status", "Form Status", TransformStatusMap, nil),
		col("payment_status", "Payment Status", TransformPaymentStatusMap, nil),
		col("registration_date", "Registration Date", TransformDateISO, nil),
		col("gender", "Gender", TransformPassthrough, nil),
		col("birth_date", "Birth Date", TransformDateISO, nil),
		col("education_level", "Education Level", TransformPassthrough, nil),
		col("major", "Major", TransformPassthrough, nil),
		col("year_of_study", "Year Of Study", TransformPassthrough, nil),
		col("gpa", "GPA", TransformPassthrough, nil),
		col("dietary_restrictions", "Dietary Restrictions", TransformPassthrough, nil),
		col("t_shirt_size", "T-Shirt Size", TransformPassthrough, nil),
		col("emergency_contact_name", "Emergency Contact Name", TransformPassthrough, nil),
		col("emergency_contact_phone", "Emergency Contact Phone", TransformPassthrough, nil),
		col("ambassador_reference", "Ambassador Reference", TransformJoinLookup, map[string]any{"path": "ambassador.name"}),
		col("program_reference", "Program", TransformJoinLookup, map[string]any{"path": "program.name"}),
		col("scholarship_status", "Scholarship Status", TransformBooleanYesNo, nil),
		col("visa_required", "Visa Required", TransformBooleanYesNo, nil),
		col("visa_status", "Visa Status", TransformPassthrough, nil),
		col("accommodation_needed", "Accommodation Needed", TransformBooleanYesNo, nil),
		col("dietary_notes", "Dietary Notes", TransformDefaultIfAbsent, map[string]any{"default": ""}),
		col("accessibility_notes", "Accessibility Notes", TransformDefaultIfAbsent, map[string]any{"default": ""}),
		col("arrival_date", "Arrival Date", TransformDateISO, nil),
		col("departure_date", "Departure Date", TransformDateISO, nil),
		col("country_code", "Country Code", TransformPassthrough, nil),
		col("local_phone", "Local Phone", TransformPassthrough, nil),
		col("full_phone", "Full Phone", TransformPhoneConcat, map[string]any{"country_field": "country_code", "local_field": "local_phone"}),
		col("checked_in", "Checked In", TransformBooleanYesNo, nil),
		col("checked_in_at", "Checked In At", TransformDateISO, nil),
		col("certificate_issued", "Certificate Issued", TransformBooleanYesNo, nil),
		col("created_at", "Created At", TransformDateISO, nil),
	}
	return base
}
