package models

import "time"

// TaskType classifies an assignment.
type TaskType string

const (
	TaskTypeHomework  TaskType = "homework"
	TaskTypeReading   TaskType = "reading"
	TaskTypeLabReport TaskType = "lab_report"
	TaskTypeProject   TaskType = "project"
	TaskTypeQuiz      TaskType = "quiz"
	TaskTypeOther     TaskType = "other"
)

// Valid reports whether the type is known.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeHomework, TaskTypeReading, TaskTypeLabReport, TaskTypeProject, TaskTypeQuiz, TaskTypeOther:
		return true
	default:
		return false
	}
}

// TaskPriority orders tasks for students.
type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// Valid reports whether the priority is known.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	default:
		return false
	}
}

// SubmissionStatus is the derived lifecycle label of a student's work on a task.
// It is never persisted.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusOverdue   SubmissionStatus = "overdue"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
)

// Attachment references an uploaded file.
type Attachment struct {
	URL string `json:"url"`
}

// Submission is a student's single response to a task. Grade and GradedAt are
// either both nil or both set.
type Submission struct {
	StudentID   string       `json:"student_id"`
	Note        string       `json:"note,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Grade       *string      `json:"grade"`
	Feedback    string       `json:"feedback,omitempty"`
	GradedAt    *time.Time   `json:"graded_at"`
}

// Clone returns a deep copy of the submission.
func (s Submission) Clone() Submission {
	clone := s
	if s.Attachments != nil {
		clone.Attachments = append([]Attachment(nil), s.Attachments...)
	}
	if s.Grade != nil {
		grade := *s.Grade
		clone.Grade = &grade
	}
	if s.GradedAt != nil {
		gradedAt := *s.GradedAt
		clone.GradedAt = &gradedAt
	}
	return clone
}

// Task is a teacher-issued assignment with its embedded submissions, at most
// one per student.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Subject     string       `json:"subject"`
	ClassLevel  int          `json:"class_level"`
	TeacherID   string       `json:"teacher_id"`
	SchoolID    string       `json:"school_id"`
	Type        TaskType     `json:"type"`
	Priority    TaskPriority `json:"priority"`
	DueDate     time.Time    `json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	Submissions []Submission `json:"submissions"`
}

// SubmissionFor returns the submission of the given student, if any.
func (t Task) SubmissionFor(studentID string) (Submission, bool) {
	for _, sub := range t.Submissions {
		if sub.StudentID == studentID {
			return sub, true
		}
	}
	return Submission{}, false
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	clone := t
	clone.Submissions = make([]Submission, 0, len(t.Submissions))
	for _, sub := range t.Submissions {
		clone.Submissions = append(clone.Submissions, sub.Clone())
	}
	return clone
}
