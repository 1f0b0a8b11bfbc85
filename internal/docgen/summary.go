package docgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"discharge-docgen/internal/record"
)

// BuildSummaryMarkdown renders a reviewer-facing summary of the record.
// It reuses the rendering context so the preview shows exactly what the
// document will carry.
func BuildSummaryMarkdown(rec record.StructuredRecord, now time.Time) string {
	ctx := BuildContext(rec, now)

	var b strings.Builder
	fmt.Fprintf(&b, "# Discharge Summary\n\n")
	fmt.Fprintf(&b, "- Patient: %s (%s)\n", ctx["name"], ctx["age"])
	fmt.Fprintf(&b, "- UMR: %s | Admission No: %s | Ward: %s\n", ctx["umr"], ctx["admission"], ctx["ward"])
	fmt.Fprintf(&b, "- Admitted: %s | Discharged: %s\n\n", ctx["admit"], ctx["discharge"])

	fmt.Fprintf(&b, "## Diagnosis\n\n")
	for _, d := range strings.Split(ctx["Diagnosis"], "\n") {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Chief Complaints\n\n%s\n\n", ctx["ChiefComplaints"])

	fmt.Fprintf(&b, "## Risk Factors / Past History\n\n")
	if strings.TrimSpace(ctx["RiskFactors"]) == "" {
		fmt.Fprintf(&b, "- None recorded\n")
	} else {
		for _, h := range strings.Split(ctx["RiskFactors"], "\n") {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Vitals\n\n")
	fmt.Fprintf(&b, "| TEMP | PR | BP | SPo2 | RR |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n\n", ctx["TEMP"], ctx["PR"], ctx["BP"], ctx["SPo2"], ctx["RR"])

	fmt.Fprintf(&b, "## Examination\n\n")
	fmt.Fprintf(&b, "| CVS | RS | CNS | PA |\n|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s | %s |\n\n", ctx["CVS"], ctx["RS"], ctx["CNS"], ctx["PA"])

	if strings.TrimSpace(ctx["Course"]) != "" {
		fmt.Fprintf(&b, "## Course In The Hospital\n\n%s\n\n", ctx["Course"])
	}

	fmt.Fprintf(&b, "## Medications\n\n")
	if len(rec.Medications) == 0 {
		fmt.Fprintf(&b, "None recorded.\n\n")
	} else {
		fmt.Fprintf(&b, "| Medication | Dosage | Frequency | Time |\n|---|---|---|---|\n")
		for i := 1; i <= record.MaxMedicationRows; i++ {
			tab := ctx[fmt.Sprintf("TAB%d", i)]
			if tab == "" {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				tab, ctx[fmt.Sprintf("DOSAGE%d", i)], ctx[fmt.Sprintf("FREQ%d", i)], ctx[fmt.Sprintf("TOM%d", i)])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated %s at %s\n", ctx["current_date"], ctx["current_time"])
	return b.String()
}

// SummaryHTML converts the markdown summary into a standalone HTML page for
// the review preview and the PDF printer.
func SummaryHTML(rec record.StructuredRecord, now time.Time) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var content strings.Builder
	if err := md.Convert([]byte(BuildSummaryMarkdown(rec, now)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Discharge Summary</title>" +
		"<style>" +
		"body{font-family:Georgia,serif;max-width:820px;margin:0 auto;padding:1rem;color:#1c1917;}" +
		"table{width:100%;border-collapse:collapse;font-size:0.85rem;}" +
		"th,td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;text-align:left;vertical-align:top;}" +
		"thead th{background:#f1f5f9;}" +
		"h1{border-bottom:2px solid #1c1917;padding-bottom:0.25rem;}" +
		"</style></head><body><div class='summary'>" + content.String() + "</div></body></html>", nil
}
