// Package record holds the canonical structured clinical record extracted
// from a discharge summary, plus validation and review reconciliation.
package record

import "strings"

// NA is the placeholder for any scalar the source document did not provide.
const NA = "N/A"

// AdviceLine is the mandatory advice entry every rendered diagnosis list
// must carry. Matching is a case-insensitive substring check.
const AdviceLine = "ADVICE: MEDICAL MANAGEMENT"

// MaxMedicationRows is how many medication rows the review form and the
// rendered document carry. Extra entries are dropped, missing ones render
// as empty slots.
const MaxMedicationRows = 10

type Vitals struct {
	Temp string `json:"TEMP"`
	PR   string `json:"PR"`
	BP   string `json:"BP"`
	SPo2 string `json:"SPo2"`
	RR   string `json:"RR"`
}

type Examination struct {
	CVS string `json:"CVS"`
	RS  string `json:"RS"`
	CNS string `json:"CNS"`
	PA  string `json:"PA"`
}

type Medication struct {
	Form   string `json:"form"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Freq   string `json:"freq"`
	Time   string `json:"time"`
}

// StructuredRecord is created once per uploaded PDF, held in a transient
// per-user session, optionally rewritten by Reconcile from a review
// submission, and discarded after document generation.
type StructuredRecord struct {
	Name            string `json:"name"`
	AgeGender       string `json:"age/gender"`
	AddressLine1    string `json:"ad1"`
	AddressLine2    string `json:"ad2"`
	Mobile          string `json:"mob"`
	AdmissionNumber string `json:"admission_number"`
	UMR             string `json:"umr"`
	Ward            string `json:"ward"`
	AdmissionDate   string `json:"admission_date"`
	DischargeDate   string `json:"discharge_date"`

	Diagnosis       []string `json:"Diagnosis"`
	RiskFactors     []string `json:"RiskFactors"`
	PastHistory     []string `json:"PastHistory"`
	ChiefComplaints string   `json:"ChiefComplaints"`
	Course          []string `json:"Course"`

	Vitals      Vitals       `json:"Vitals"`
	Examination Examination  `json:"Examination"`
	Medications []Medication `json:"Medications"`
}

// Normalize fills N/A placeholders for optional scalars the model left
// blank. The four required identity fields (name, age/gender and the two
// dates) are deliberately left alone so Validate still catches a record
// that genuinely lacks them.
func (r *StructuredRecord) Normalize() {
	fill := func(s *string) {
		if strings.TrimSpace(*s) == "" {
			*s = NA
		}
	}
	fill(&r.AddressLine1)
	fill(&r.AddressLine2)
	fill(&r.Mobile)
	fill(&r.AdmissionNumber)
	fill(&r.UMR)
	fill(&r.Ward)
	fill(&r.ChiefComplaints)
	fill(&r.Vitals.Temp)
	fill(&r.Vitals.PR)
	fill(&r.Vitals.BP)
	fill(&r.Vitals.SPo2)
	fill(&r.Vitals.RR)
	fill(&r.Examination.CVS)
	fill(&r.Examination.RS)
	fill(&r.Examination.CNS)
	fill(&r.Examination.PA)
}
