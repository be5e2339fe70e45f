package models

import "time"

// MaterialType classifies study materials.
type MaterialType string

const (
	MaterialTypeNotes        MaterialType = "notes"
	MaterialTypeSummary      MaterialType = "summary"
	MaterialTypeFormulaSheet MaterialType = "formula_sheet"
	MaterialTypeRevision     MaterialType = "revision"
	MaterialTypeReference    MaterialType = "reference"
)

// Valid reports whether the type is known.
func (t MaterialType) Valid() bool {
	switch t {
	case MaterialTypeNotes, MaterialTypeSummary, MaterialTypeFormulaSheet, MaterialTypeRevision, MaterialTypeReference:
		return true
	default:
		return false
	}
}

// StudyMaterial is teacher-authored reading content for a class level.
type StudyMaterial struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Subject    string       `json:"subject"`
	ClassLevel int          `json:"class_level"`
	TeacherID  string       `json:"teacher_id"`
	SchoolID   string       `json:"school_id"`
	Type       MaterialType `json:"type"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"created_at"`
}
