package dto

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// CreateTaskRequest captures POST /tasks payload. TeacherID is only honoured
// for school administrators creating a task on a teacher's behalf.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"max=200"`
	Description string              `json:"description" validate:"max=5000"`
	Subject     string              `json:"subject" validate:"max=100"`
	ClassLevel  int                 `json:"classLevel" validate:"omitempty,min=1,max=12"`
	TeacherID   string              `json:"teacherId,omitempty"`
	Type        models.TaskType     `json:"type,omitempty" validate:"omitempty,oneof=homework reading lab_report project quiz other"`
	Priority    models.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	DueDate     time.Time           `json:"dueDate"`
}

// AttachmentRequest references an uploaded file.
type AttachmentRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// SubmitTaskRequest captures POST /tasks/:id/submissions payload.
type SubmitTaskRequest struct {
	Note        string              `json:"note" validate:"max=5000"`
	Attachments []AttachmentRequest `json:"attachments" validate:"omitempty,max=10,dive"`
}

// GradeSubmissionRequest captures PUT /tasks/:id/submissions/:studentId/grade payload.
type GradeSubmissionRequest struct {
	Grade    string `json:"grade" validate:"required,max=16"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

// TaskFilter narrows GET /tasks.
type TaskFilter struct {
	Subject string
	Status  models.SubmissionStatus
}

// TaskView is a task as returned to a viewer. Status is set when the viewer
// follows a single student.
type TaskView struct {
	models.Task
	Status *models.SubmissionStatus `json:"status,omitempty"`
}

// TaskStatusResponse answers GET /tasks/:id/status.
type TaskStatusResponse struct {
	TaskID    string                  `json:"taskId"`
	StudentID string                  `json:"studentId"`
	Status    models.SubmissionStatus `json:"status"`
}
