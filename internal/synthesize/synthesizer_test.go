package synthesize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"discharge-docgen/internal/extract"
	"discharge-docgen/internal/llm"
	"discharge-docgen/internal/retry"
)

type fakeCaller struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeCaller) ModelName() string { return "fake-model" }

const recordJSON = `{
  "name": "Jane Doe",
  "age/gender": "42/F",
  "admission_date": "2024-01-05",
  "discharge_date": "2024-01-09",
  "Diagnosis": ["Dengue fever"],
  "Medications": [{"form": "Tab", "name": "Paracetamol", "dosage": "500MG"}]
}`

func noSleepController(p retry.Policy) retry.Controller {
	return retry.Controller{Policy: p, Sleep: func(time.Duration) {}}
}

func TestFromTextRecoversJSONFromNoisyResponse(t *testing.T) {
	caller := &fakeCaller{responses: []string{"Sure! Here is the record:\n" + recordJSON + "\nLet me know if you need anything else."}}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))

	rec, err := s.FromText(context.Background(), "discharge text")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Jane Doe" || rec.AgeGender != "42/F" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Medications) != 1 || rec.Medications[0].Name != "Paracetamol" {
		t.Fatalf("medications not decoded: %+v", rec.Medications)
	}
	// Optional scalars are normalized after decode.
	if rec.Vitals.BP != "N/A" || rec.Ward != "N/A" {
		t.Fatalf("record not normalized: %+v", rec)
	}
	if caller.calls != 1 {
		t.Fatalf("expected a single call, got %d", caller.calls)
	}
}

func TestFromTextStripsCodeFences(t *testing.T) {
	caller := &fakeCaller{responses: []string{"```json\n" + recordJSON + "\n```"}}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))
	rec, err := s.FromText(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Jane Doe" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestFromTextEmbedsDocumentInPrompt(t *testing.T) {
	caller := &fakeCaller{responses: []string{recordJSON}}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))
	if _, err := s.FromText(context.Background(), "UNIQUE-MARKER-9381"); err != nil {
		t.Fatal(err)
	}
	p := caller.prompts[0]
	if !strings.Contains(p, "UNIQUE-MARKER-9381") {
		t.Fatal("prompt must embed the document text")
	}
	for _, rule := range []string{
		"split it into RiskFactors and PastHistory",
		"ADVICE: MEDICAL MANAGEMENT",
		`"N/A" (not null)`,
		"form (Cap/Tab/Inj)",
		"Output only raw JSON",
	} {
		if !strings.Contains(p, rule) {
			t.Fatalf("prompt missing rule %q", rule)
		}
	}
}

func TestFromTextNoJSONObjectFailsWithoutRetry(t *testing.T) {
	caller := &fakeCaller{responses: []string{"I could not find any structured data."}}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))
	_, err := s.FromText(context.Background(), "text")
	var le *llm.Error
	if !errors.As(err, &le) || le.Kind != llm.KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
	if caller.calls != 1 {
		t.Fatalf("parse failures must not re-invoke the model, got %d calls", caller.calls)
	}
}

func TestFromTextRetriesTransientFailuresThenSucceeds(t *testing.T) {
	caller := &fakeCaller{
		errs:      []error{&llm.Error{Kind: llm.KindStatus, Msg: "503"}, &llm.Error{Kind: llm.KindTransport, Msg: "reset"}},
		responses: []string{"", "", recordJSON},
	}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))
	rec, err := s.FromText(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Jane Doe" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if caller.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", caller.calls)
	}
}

func TestFromTextCredentialFailureIsNotRetried(t *testing.T) {
	credErr := &llm.Error{Kind: llm.KindCredential, Msg: "GEMINI_API_KEY not configured"}
	caller := &fakeCaller{errs: []error{credErr, credErr, credErr, credErr, credErr}, responses: []string{""}}
	s := New(caller, WithRetry(noSleepController(retry.TransientOnly)))
	_, err := s.FromText(context.Background(), "text")
	var le *llm.Error
	if !errors.As(err, &le) || le.Kind != llm.KindCredential {
		t.Fatalf("expected credential error, got %v", err)
	}
	if caller.calls != 1 {
		t.Fatalf("expected a single call, got %d", caller.calls)
	}
}

func TestFromPDFUsesInjectedExtractor(t *testing.T) {
	caller := &fakeCaller{responses: []string{recordJSON}}
	s := New(caller,
		WithRetry(noSleepController(retry.TransientOnly)),
		WithExtractor(func(path string) (extract.Result, error) {
			if path != "/tmp/summary.pdf" {
				t.Fatalf("unexpected path %s", path)
			}
			return extract.Result{Text: "extracted body", Pages: 2}, nil
		}),
	)
	rec, err := s.FromPDF(context.Background(), "/tmp/summary.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "Jane Doe" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !strings.Contains(caller.prompts[0], "extracted body") {
		t.Fatal("extracted text must flow into the prompt")
	}
}

func TestFromPDFPropagatesExtractionError(t *testing.T) {
	wantErr := &extract.Error{Path: "x.pdf", Err: errors.New("not a pdf")}
	s := New(&fakeCaller{responses: []string{recordJSON}},
		WithRetry(noSleepController(retry.TransientOnly)),
		WithExtractor(func(string) (extract.Result, error) { return extract.Result{}, wantErr }),
	)
	_, err := s.FromPDF(context.Background(), "x.pdf")
	var ee *extract.Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestJSONSpan(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`prose {"a":1} trailing`, `{"a":1}`, true},
		{`{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{`no braces here`, ``, false},
		{`} backwards {`, ``, false},
	}
	for _, tc := range tests {
		got, ok := jsonSpan(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("jsonSpan(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
