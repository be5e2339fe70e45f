package dto

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// CreateMaterialRequest captures POST /materials payload.
type CreateMaterialRequest struct {
	Title      string              `json:"title" validate:"required,max=200"`
	Subject    string              `json:"subject" validate:"required,max=100"`
	ClassLevel int                 `json:"classLevel" validate:"required,min=1,max=12"`
	Type       models.MaterialType `json:"type,omitempty" validate:"omitempty,oneof=notes summary formula_sheet revision reference"`
	Content    string              `json:"content" validate:"required"`
}

// QuizQuestionRequest is one question of a new quiz.
type QuizQuestionRequest struct {
	ID                 string   `json:"id" validate:"required,max=64"`
	Text               string   `json:"text" validate:"required"`
	Options            []string `json:"options" validate:"required,min=2,max=8,dive,required"`
	CorrectOptionIndex int      `json:"correctOptionIndex" validate:"min=0"`
}

// CreateQuizRequest captures POST /quizzes payload.
type CreateQuizRequest struct {
	Title      string                `json:"title" validate:"required,max=200"`
	Subject    string                `json:"subject" validate:"required,max=100"`
	ClassLevel int                   `json:"classLevel" validate:"required,min=1,max=12"`
	DueDate    time.Time             `json:"dueDate" validate:"required"`
	Questions  []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizAttemptRequest captures POST /quizzes/:id/attempts payload keyed by question id.
type QuizAttemptRequest struct {
	Answers map[string]int `json:"answers" validate:"required"`
}

// PostAnnouncementRequest captures POST /announcements payload.
type PostAnnouncementRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Content     string            `json:"content" validate:"required"`
	TargetRoles []models.UserRole `json:"targetRoles" validate:"required,min=1,dive,audience"`
}

// CreateFeeRequest captures POST /fees payload.
type CreateFeeRequest struct {
	StudentID string    `json:"studentId" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	Month     string    `json:"month" validate:"required,max=32"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"dueDate" validate:"required"`
}

// FeeView adds the effective status of a fee at read time.
type FeeView struct {
	models.Fee
	EffectiveStatus models.FeeStatus `json:"effective_status"`
}
