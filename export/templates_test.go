package export

import "testing"

func TestTemplatesLookup_KnownPairsResolve(t *testing.T) {
	cases := []struct {
		exportType ExportType
		name       string
	}{
		{TypeParticipants, "standard"},
		{TypeParticipants, "detailed"},
		{TypeParticipants, "summary"},
		{TypeParticipants, "complete"},
		{TypePayments, "standard"},
		{TypePayments, "detailed"},
		{TypeAmbassadors, "standard"},
		{TypeAmbassadors, "detailed"},
	}
	for _, tc := range cases {
		tmpl, err := templates.Lookup(tc.exportType, tc.name)
		if err != nil {
			t.Errorf("Lookup(%s, %s) failed: %v", tc.exportType, tc.name, err)
			continue
		}
		if tmpl.ExportType != tc.exportType || tmpl.Name != tc.name {
			t.Errorf("Lookup(%s, %s) returned mismatched template %+v", tc.exportType, tc.name, tmpl)
		}
		if len(tmpl.Columns) == 0 {
			t.Errorf("Lookup(%s, %s) returned a template with no columns", tc.exportType, tc.name)
		}
	}
}

func TestTemplatesLookup_UnknownExportTypeIsValidationError(t *testing.T) {
	_, err := templates.Lookup(ExportType("bogus"), "standard")
	if err == nil {
		t.Fatal("expected error for unknown export_type")
	}
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected KindValidation, got %v", KindFromError(err))
	}
}

func TestTemplatesLookup_UnknownTemplateNameIsValidationError(t *testing.T) {
	_, err := templates.Lookup(TypeParticipants, "bogus")
	if err == nil {
		t.Fatal("expected error for unknown template name")
	}
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected KindValidation, got %v", KindFromError(err))
	}
}

func TestListTemplates_ReturnsAllRegisteredForType(t *testing.T) {
	list, err := ListTemplates(TypeParticipants)
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 participants templates, got %d", len(list))
	}
	names := map[string]bool{}
	for _, tmpl := range list {
		names[tmpl.Name] = true
	}
	for _, want := range []string{"standard", "detailed", "summary", "complete"} {
		if !names[want] {
			t.Errorf("expected template %q in list, got %v", want, names)
		}
	}
}

func TestListTemplates_UnknownExportTypeErrors(t *testing.T) {
	_, err := ListTemplates(ExportType("bogus"))
	if err == nil {
		t.Fatal("expected error for unknown export_type")
	}
}

func TestCompleteParticipantTemplate_HasAmbassadorAndProgramJoins(t *testing.T) {
	tmpl, err := templates.Lookup(TypeParticipants, "complete")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	var sawAmbassador, sawProgram bool
	for _, c := range tmpl.Columns {
		if c.SourceField == "ambassador_reference" && c.TransformKind == TransformJoinLookup {
			sawAmbassador = true
		}
		if c.SourceField == "program_reference" && c.TransformKind == TransformJoinLookup {
			sawProgram = true
		}
	}
	if !sawAmbassador || !sawProgram {
		t.Fatalf("expected complete template to join ambassador and program references, got columns %+v", tmpl.Columns)
	}
}

func TestTemplates_RecommendedChunkSizeNeverExceedsSingleFileCeiling(t *testing.T) {
	for _, exportType := range []ExportType{TypeParticipants, TypePayments, TypeAmbassadors} {
		list, err := templates.List(exportType)
		if err != nil {
			t.Fatalf("List(%s) failed: %v", exportType, err)
		}
		for _, tmpl := range list {
			if tmpl.RecommendedChunkSize > tmpl.MaxRecordsSingleFile {
				t.Errorf("template %s/%s: recommended chunk size %d exceeds single-file ceiling %d",
					tmpl.ExportType, tmpl.Name, tmpl.RecommendedChunkSize, tmpl.MaxRecordsSingleFile)
			}
		}
	}
}
