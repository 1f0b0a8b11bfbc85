// Package synthesize turns raw discharge-summary text into a structured
// clinical record via an external generative-text service.
package synthesize

import (
	"context"
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"discharge-docgen/internal/extract"
	"discharge-docgen/internal/llm"
	"discharge-docgen/internal/record"
	"discharge-docgen/internal/retry"
)

var tracer = otel.Tracer("discharge-docgen/synthesize")

type Synthesizer struct {
	caller    llm.Caller
	retry     retryController
	extractFn func(string) (extract.Result, error)
}

type retryController interface {
	Do(op func() error) error
}

type Option func(*Synthesizer)

// WithRetry replaces the default retry controller.
func WithRetry(c retryController) Option {
	return func(s *Synthesizer) { s.retry = c }
}

// WithExtractor replaces the PDF text extractor.
func WithExtractor(fn func(string) (extract.Result, error)) Option {
	return func(s *Synthesizer) { s.extractFn = fn }
}

func New(caller llm.Caller, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		caller:    caller,
		retry:     retry.Controller{Policy: retry.TransientOnly},
		extractFn: extract.Extract,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromPDF extracts text from the PDF at path and synthesizes a structured
// record from it.
func (s *Synthesizer) FromPDF(ctx context.Context, path string) (record.StructuredRecord, error) {
	ctx, span := tracer.Start(ctx, "synthesize.FromPDF")
	defer span.End()

	res, err := s.extractFn(path)
	if err != nil {
		return record.StructuredRecord{}, err
	}
	span.SetAttributes(
		attribute.Int("pdf.pages", res.Pages),
		attribute.Bool("pdf.truncated", res.Truncated),
	)
	return s.FromText(ctx, res.Text)
}

// FromText prompts the configured caller with the extraction instruction,
// recovers the first JSON object from the response, and decodes it. Only
// the network round trip sits inside the retry controller; a response that
// parses badly replays identically, so it fails fast.
func (s *Synthesizer) FromText(ctx context.Context, text string) (record.StructuredRecord, error) {
	ctx, span := tracer.Start(ctx, "synthesize.FromText")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", s.caller.ModelName()))

	prompt := buildPrompt(text)
	var raw string
	err := s.retry.Do(func() error {
		out, err := s.caller.GenerateJSON(ctx, prompt)
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return record.StructuredRecord{}, err
	}

	clean, ok := jsonSpan(raw)
	if !ok {
		return record.StructuredRecord{}, &llm.Error{Kind: llm.KindParse, Msg: "no JSON object in model response"}
	}
	var rec record.StructuredRecord
	if err := json.Unmarshal([]byte(clean), &rec); err != nil {
		return record.StructuredRecord{}, &llm.Error{Kind: llm.KindParse, Msg: "decode structured record", Err: err}
	}
	rec.Normalize()
	return rec, nil
}

// jsonSpan recovers the first top-level {...} span from a possibly noisy
// response: first opening brace through the last closing brace, after
// stripping markdown code fences.
func jsonSpan(raw string) (string, bool) {
	raw = stripCodeFences(raw)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
