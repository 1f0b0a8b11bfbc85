// Package docgen assembles the flat rendering context for a reviewed
// record and binds it into the discharge document template.
package docgen

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"discharge-docgen/internal/record"
)

const (
	isoDateFormat     = "2006-01-02"
	displayDateFormat = "02-Jan-2006"
)

// BuildContext flattens a validated record into the key/value mapping the
// document template binds. Every known placeholder always receives a value,
// so rendering cannot fail on a missing key regardless of input shape.
func BuildContext(rec record.StructuredRecord, now time.Time) map[string]string {
	diagnosis := dedupe(rec.Diagnosis)
	if !containsAdvice(diagnosis) {
		diagnosis = append(diagnosis, record.AdviceLine)
	}
	history := dedupe(append(append([]string{}, rec.RiskFactors...), rec.PastHistory...))

	ctx := map[string]string{
		"umr":             orNA(rec.UMR),
		"name":            title(orNA(rec.Name)),
		"age":             orNA(rec.AgeGender),
		"ad1":             title(orNA(rec.AddressLine1)),
		"ad2":             title(orNA(rec.AddressLine2)),
		"mob":             orNA(rec.Mobile),
		"admission":       orNA(rec.AdmissionNumber),
		"ward":            strings.ToUpper(orNA(rec.Ward)),
		"admit":           displayDate(rec.AdmissionDate),
		"discharge":       displayDate(rec.DischargeDate),
		"Diagnosis":       strings.Join(diagnosis, "\n"),
		"ChiefComplaints": strings.ToUpper(orNA(rec.ChiefComplaints)),
		"RiskFactors":     strings.Join(history, "\n"),
		"Course":          strings.Join(rec.Course, "\n"),
		"TEMP":            orNA(rec.Vitals.Temp),
		"PR":              orNA(rec.Vitals.PR),
		"BP":              orNA(rec.Vitals.BP),
		"SPo2":            orNA(rec.Vitals.SPo2),
		"RR":              orNA(rec.Vitals.RR),
		"CVS":             orNA(rec.Examination.CVS),
		"RS":              orNA(rec.Examination.RS),
		"CNS":             orNA(rec.Examination.CNS),
		"PA":              orNA(rec.Examination.PA),
		"current_date":    now.Format(displayDateFormat),
		"current_time":    now.Format("03:04 PM"),
	}

	meds := rec.Medications
	if len(meds) > record.MaxMedicationRows {
		meds = meds[:record.MaxMedicationRows]
	}
	for i := 0; i < record.MaxMedicationRows; i++ {
		var med record.Medication
		if i < len(meds) {
			med = meds[i]
		}
		n := fmt.Sprintf("%d", i+1)
		ctx["TAB"+n] = strings.TrimSpace(med.Form + " " + med.Name)
		ctx["DOSAGE"+n] = orNA(med.Dosage)
		ctx["FREQ"+n] = orNA(med.Freq)
		ctx["TOM"+n] = orNA(med.Time)
	}
	return ctx
}

// Filename derives the attachment name from the title-cased patient name
// and a generation timestamp, unique per generation.
func Filename(rec record.StructuredRecord, now time.Time) string {
	name := strings.ReplaceAll(title(orNA(rec.Name)), " ", "_")
	return fmt.Sprintf("Discharge_%s_%s.docx", name, now.Format("20060102_150405"))
}

// displayDate reformats an ISO date for display; anything that does not
// parse passes through unchanged.
func displayDate(iso string) string {
	t, err := time.Parse(isoDateFormat, iso)
	if err != nil {
		return iso
	}
	return t.Format(displayDateFormat)
}

// dedupe preserves first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func containsAdvice(diagnosis []string) bool {
	for _, d := range diagnosis {
		if strings.Contains(strings.ToUpper(d), record.AdviceLine) {
			return true
		}
	}
	return false
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return record.NA
	}
	return s
}
