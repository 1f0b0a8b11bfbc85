package record

import (
	"fmt"
	"strings"
)

// Form is the flat field mapping a review submission arrives as.
// url.Values satisfies it.
type Form interface {
	Get(key string) string
}

// ParseMultiline turns a free-text block into one list entry per non-blank
// line, trimming surrounding whitespace.
func ParseMultiline(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Reconcile merges the session's synthesized record with human-edited form
// fields into the canonical edited record. Patient-identity fields are
// carried over unchanged from the original; only clinical content is
// editable. Vitals, examination findings and medications are rebuilt
// entirely from the form.
func Reconcile(original StructuredRecord, form Form) StructuredRecord {
	rec := StructuredRecord{
		Name:            original.Name,
		AgeGender:       original.AgeGender,
		AddressLine1:    original.AddressLine1,
		AddressLine2:    original.AddressLine2,
		Mobile:          original.Mobile,
		AdmissionNumber: original.AdmissionNumber,
		UMR:             original.UMR,
		Ward:            original.Ward,
		AdmissionDate:   original.AdmissionDate,
		DischargeDate:   original.DischargeDate,

		Diagnosis:       ParseMultiline(form.Get("Diagnosis")),
		RiskFactors:     ParseMultiline(form.Get("RiskFactors")),
		PastHistory:     ParseMultiline(form.Get("PastHistory")),
		ChiefComplaints: form.Get("ChiefComplaints"),
		Course:          ParseMultiline(form.Get("Course")),

		Vitals: Vitals{
			Temp: form.Get("TEMP"),
			PR:   form.Get("PR"),
			BP:   form.Get("BP"),
			SPo2: form.Get("SPo2"),
			RR:   form.Get("RR"),
		},
		Examination: Examination{
			CVS: form.Get("CVS"),
			RS:  form.Get("RS"),
			CNS: form.Get("CNS"),
			PA:  form.Get("PA"),
		},
	}

	for i := 1; i <= MaxMedicationRows; i++ {
		name := strings.TrimSpace(form.Get(fmt.Sprintf("TAB%d_name", i)))
		if name == "" {
			continue
		}
		rec.Medications = append(rec.Medications, Medication{
			Form:   strings.ToUpper(strings.TrimSpace(form.Get(fmt.Sprintf("TAB%d_form", i)))),
			Name:   name,
			Dosage: orNA(form.Get(fmt.Sprintf("DOSAGE%d", i))),
			Freq:   orNA(form.Get(fmt.Sprintf("FREQ%d", i))),
			Time:   orNA(form.Get(fmt.Sprintf("TOM%d", i))),
		})
	}
	return rec
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NA
	}
	return s
}
