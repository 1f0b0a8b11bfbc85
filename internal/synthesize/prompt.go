package synthesize

import "fmt"

const promptFormat = `You are a strict JSON generator for medical discharge summaries. ONLY respond with raw JSON.

Convert this discharge summary into JSON with the format:
{
  "name": "Patient's full name",
  "age/gender": "Age and gender",
  "ad1": "Address line 1",
  "ad2": "Address line 2",
  "mob": "Mobile number",
  "admission_number": "Admission number",
  "umr": "Unique Medical Record number",
  "ward": "Ward name/number",
  "admission_date": "YYYY-MM-DD",
  "discharge_date": "YYYY-MM-DD",
  "Diagnosis": ["Primary diagnosis", "Secondary diagnosis", "ADVICE: MEDICAL MANAGEMENT"],
  "RiskFactors": ["Hypertension", "Hypothyroidism"],
  "PastHistory": ["Past history 1", "Past history 2"],
  "ChiefComplaints": "Chief complaints text",
  "Course": ["Hospital course point 1", "Point 2"],
  "Vitals": {
    "TEMP": "Temperature",
    "PR": "Pulse rate",
    "BP": "Blood pressure",
    "SPo2": "Oxygen saturation",
    "RR": "Respiratory rate"
  },
  "Examination": {
    "CVS": "CVS findings",
    "RS": "RS findings",
    "CNS": "CNS findings",
    "PA": "PA findings"
  },
  "Medications": [
    {
      "form": "Tab/Cap/Inj",
      "name": "Medicine name",
      "dosage": "10MG",
      "freq": "ONCE DAILY",
      "time": "8PM AFTER FOOD"
    }
  ]
}

RULES:
1. If the document shows "Risk Factors / Past History" combined, split it into RiskFactors and PastHistory arrays.
2. Must include "ADVICE: MEDICAL MANAGEMENT" in Diagnosis.
3. If any field is missing, return "N/A" (not null).
4. Medications must include form (Cap/Tab/Inj) with name.
5. Output only raw JSON.

Document text:
"""
%s
"""
`

// buildPrompt embeds the raw document text into the deterministic
// extraction instruction.
func buildPrompt(text string) string {
	return fmt.Sprintf(promptFormat, text)
}
