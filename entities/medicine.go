// Package entities holds the records returned by the prescription analysis pipeline.
package entities

// Placeholders used when the knowledge source leaves a list field out.
const (
	DefaultSideEffect = "None"
	DefaultPrecaution = "Consult your doctor"
)

// MedicineRecord is one normalized medicine entry. Medicine is never empty;
// the other fields are always present so consumers never check for nil.
type MedicineRecord struct {
	Medicine    string   `json:"medicine"`
	Description string   `json:"description"`
	Dosage      string   `json:"dosage"`
	SideEffects []string `json:"sideEffects"`
	Precautions []string `json:"precautions"`
}

// Analysis is what the HTTP and CLI surfaces hand back for one pipeline run.
type Analysis struct {
	AnalysisID string           `json:"analysis_id"`
	Source     string           `json:"source"` // "document" | "query"
	Candidates []string         `json:"candidates"`
	Medicines  []MedicineRecord `json:"medicines"`
}
