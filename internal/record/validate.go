package record

// ValidationError identifies the first required identity field found empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "Missing required field: " + e.Field
}

// Validate enforces presence of the identity fields a discharge document
// cannot be generated without. Check order is fixed; the first empty field
// wins. N/A placeholders count as present.
func Validate(r StructuredRecord) error {
	checks := []struct {
		field string
		value string
	}{
		{"name", r.Name},
		{"age/gender", r.AgeGender},
		{"admission_date", r.AdmissionDate},
		{"discharge_date", r.DischargeDate},
	}
	for _, c := range checks {
		if c.value == "" {
			return &ValidationError{Field: c.field}
		}
	}
	return nil
}
