package docgen

import (
	"strings"
	"testing"

	"discharge-docgen/internal/record"
)

func TestBuildSummaryMarkdownSections(t *testing.T) {
	rec := baseRecord()
	rec.Diagnosis = []string{"Dengue fever"}
	rec.Medications = []record.Medication{{Form: "TAB", Name: "Paracetamol"}}

	md := BuildSummaryMarkdown(rec, fixedNow)
	for _, want := range []string{
		"# Discharge Summary",
		"Patient: Jane Doe (42/F)",
		"- Dengue fever",
		"- ADVICE: MEDICAL MANAGEMENT",
		"| TAB Paracetamol |",
		"Admitted: 05-Jan-2024",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("summary missing %q:\n%s", want, md)
		}
	}
}

func TestBuildSummaryMarkdownNoMedications(t *testing.T) {
	md := BuildSummaryMarkdown(baseRecord(), fixedNow)
	if !strings.Contains(md, "None recorded.") {
		t.Fatal("expected explicit empty-medication note")
	}
}

func TestSummaryHTML(t *testing.T) {
	html, err := SummaryHTML(baseRecord(), fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "Jane Doe") {
		t.Fatalf("unexpected html: %.200s", html)
	}
}
