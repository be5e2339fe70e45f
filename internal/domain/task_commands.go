package domain

import (
	"strings"
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Subject     string
	ClassLevel  int
	TeacherID   string
	SchoolID    string
	Type        models.TaskType
	Priority    models.TaskPriority
	DueDate     time.Time
}

// SubmitTaskInput carries a student's submission.
type SubmitTaskInput struct {
	TaskID      string
	StudentID   string
	Note        string
	Attachments []models.Attachment
}

// GradeSubmissionInput carries a teacher's grading of one submission.
type GradeSubmissionInput struct {
	TaskID    string
	StudentID string
	Grade     string
	Feedback  string
}

// CreateTask validates the input and appends a new task with the given id and
// no submissions.
func CreateTask(doc models.Document, id string, in CreateTaskInput, now time.Time) (models.Document, models.Task, error) {
	if err := validateTaskInput(in); err != nil {
		return doc, models.Task{}, err
	}
	if in.Type == "" {
		in.Type = models.TaskTypeOther
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
	if !in.Type.Valid() {
		return doc, models.Task{}, appErrors.Clone(appErrors.ErrValidation, "invalid task type")
	}
	if !in.Priority.Valid() {
		return doc, models.Task{}, appErrors.Clone(appErrors.ErrValidation, "invalid task priority")
	}
	if _, ok := doc.FindSchool(in.SchoolID); !ok {
		return doc, models.Task{}, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	teacher, ok := doc.FindUser(in.TeacherID)
	if !ok || teacher.Role != models.RoleTeacher || teacher.SchoolID != in.SchoolID {
		return doc, models.Task{}, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}

	task := models.Task{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Subject:     strings.TrimSpace(in.Subject),
		ClassLevel:  in.ClassLevel,
		TeacherID:   in.TeacherID,
		SchoolID:    in.SchoolID,
		Type:        in.Type,
		Priority:    in.Priority,
		DueDate:     in.DueDate.UTC(),
		CreatedAt:   now.UTC(),
		Submissions: []models.Submission{},
	}
	next := doc.Clone()
	next.Tasks = append(next.Tasks, task)
	return next, task.Clone(), nil
}

// DeleteTask removes the task and every embedded submission. A missing task
// is reported as not found.
func DeleteTask(doc models.Document, taskID string) (models.Document, error) {
	idx := doc.TaskIndex(taskID)
	if idx < 0 {
		return doc, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	next := doc.Clone()
	next.Tasks = append(next.Tasks[:idx], next.Tasks[idx+1:]...)
	return next, nil
}

// SubmitTask upserts the student's submission. An existing submission is
// replaced entirely, which clears any grade and feedback it carried.
func SubmitTask(doc models.Document, in SubmitTaskInput, now time.Time) (models.Document, models.Submission, error) {
	idx := doc.TaskIndex(in.TaskID)
	if idx < 0 {
		return doc, models.Submission{}, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	task := doc.Tasks[idx]
	student, ok := doc.FindUser(in.StudentID)
	if !ok || student.Role != models.RoleStudent || student.SchoolID != task.SchoolID || student.ClassLevel != task.ClassLevel {
		return doc, models.Submission{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	attachments := make([]models.Attachment, 0, len(in.Attachments))
	for _, att := range in.Attachments {
		url := strings.TrimSpace(att.URL)
		if url == "" {
			return doc, models.Submission{}, appErrors.Clone(appErrors.ErrValidation, "attachment url is required")
		}
		attachments = append(attachments, models.Attachment{URL: url})
	}

	sub := models.Submission{
		StudentID:   in.StudentID,
		Note:        strings.TrimSpace(in.Note),
		SubmittedAt: now.UTC(),
		Attachments: attachments,
	}
	next := doc.Clone()
	target := &next.Tasks[idx]
	replaced := false
	for i := range target.Submissions {
		if target.Submissions[i].StudentID == in.StudentID {
			target.Submissions[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		target.Submissions = append(target.Submissions, sub)
	}
	return next, sub.Clone(), nil
}

// GradeSubmission grades an existing submission. Grading a student that never
// submitted is reported as not found.
func GradeSubmission(doc models.Document, in GradeSubmissionInput, now time.Time) (models.Document, models.Submission, error) {
	grade := strings.TrimSpace(in.Grade)
	if grade == "" {
		return doc, models.Submission{}, appErrors.Clone(appErrors.ErrValidation, "grade is required")
	}
	idx := doc.TaskIndex(in.TaskID)
	if idx < 0 {
		return doc, models.Submission{}, appErrors.Clone(appErrors.ErrNotFound, "task not found")
	}
	next := doc.Clone()
	target := &next.Tasks[idx]
	for i := range target.Submissions {
		sub := &target.Submissions[i]
		if sub.StudentID != in.StudentID {
			continue
		}
		gradedAt := now.UTC()
		sub.Grade = &grade
		sub.Feedback = strings.TrimSpace(in.Feedback)
		sub.GradedAt = &gradedAt
		return next, sub.Clone(), nil
	}
	return doc, models.Submission{}, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
}

func validateTaskInput(in CreateTaskInput) error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Subject) == "" {
		missing = append(missing, "subject")
	}
	if in.ClassLevel <= 0 {
		missing = append(missing, "class_level")
	}
	if in.TeacherID == "" {
		missing = append(missing, "teacher_id")
	}
	if in.SchoolID == "" {
		missing = append(missing, "school_id")
	}
	if in.DueDate.IsZero() {
		missing = append(missing, "due_date")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	return nil
}
