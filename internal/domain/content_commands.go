package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// CreateMaterial appends a study material authored by its teacher.
func CreateMaterial(doc models.Document, material models.StudyMaterial, now time.Time) (models.Document, models.StudyMaterial, error) {
	material.Title = strings.TrimSpace(material.Title)
	material.Subject = strings.TrimSpace(material.Subject)
	if material.Title == "" || material.Subject == "" || material.ClassLevel <= 0 || material.Content == "" {
		return doc, models.StudyMaterial{}, appErrors.Clone(appErrors.ErrValidation, "title, subject, class_level and content are required")
	}
	if material.Type == "" {
		material.Type = models.MaterialTypeNotes
	}
	if !material.Type.Valid() {
		return doc, models.StudyMaterial{}, appErrors.Clone(appErrors.ErrValidation, "invalid material type")
	}
	if err := ensureTeacher(doc, material.TeacherID, material.SchoolID); err != nil {
		return doc, models.StudyMaterial{}, err
	}
	material.CreatedAt = now.UTC()
	next := doc.Clone()
	next.Materials = append(next.Materials, material)
	return next, material, nil
}

// DeleteMaterial removes a material. Only its author may delete it; anyone
// else is told it does not exist.
func DeleteMaterial(doc models.Document, materialID, teacherID string) (models.Document, error) {
	for i, m := range doc.Materials {
		if m.ID != materialID || m.TeacherID != teacherID {
			continue
		}
		next := doc.Clone()
		next.Materials = append(next.Materials[:i], next.Materials[i+1:]...)
		return next, nil
	}
	return doc, appErrors.Clone(appErrors.ErrNotFound, "material not found")
}

// CreateQuiz appends a quiz after checking every question is answerable.
func CreateQuiz(doc models.Document, quiz models.Quiz, now time.Time) (models.Document, models.Quiz, error) {
	quiz.Title = strings.TrimSpace(quiz.Title)
	quiz.Subject = strings.TrimSpace(quiz.Subject)
	if quiz.Title == "" || quiz.Subject == "" || quiz.ClassLevel <= 0 || quiz.DueDate.IsZero() {
		return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "title, subject, class_level and due_date are required")
	}
	if len(quiz.Questions) == 0 {
		return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "quiz requires at least one question")
	}
	seen := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if q.ID == "" || strings.TrimSpace(q.Text) == "" {
			return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "question id and text are required")
		}
		if _, dup := seen[q.ID]; dup {
			return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "duplicate question id "+q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) < 2 {
			return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "question "+q.ID+" needs at least two options")
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
			return doc, models.Quiz{}, appErrors.Clone(appErrors.ErrValidation, "question "+q.ID+" has an invalid correct option")
		}
	}
	if err := ensureTeacher(doc, quiz.TeacherID, quiz.SchoolID); err != nil {
		return doc, models.Quiz{}, err
	}
	quiz.DueDate = quiz.DueDate.UTC()
	quiz.CreatedAt = now.UTC()
	quiz.Attempts = []models.QuizAttempt{}
	quiz = quiz.Clone()
	next := doc.Clone()
	next.Quizzes = append(next.Quizzes, quiz)
	return next, quiz.Clone(), nil
}

// DeleteQuiz removes a quiz owned by teacherID.
func DeleteQuiz(doc models.Document, quizID, teacherID string) (models.Document, error) {
	idx := doc.QuizIndex(quizID)
	if idx < 0 || doc.Quizzes[idx].TeacherID != teacherID {
		return doc, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
	}
	next := doc.Clone()
	next.Quizzes = append(next.Quizzes[:idx], next.Quizzes[idx+1:]...)
	return next, nil
}

// AttemptQuiz scores the answers and keeps them as the student's only attempt.
func AttemptQuiz(doc models.Document, quizID, studentID string, answers map[string]int, now time.Time) (models.Document, models.QuizAttempt, error) {
	idx := doc.QuizIndex(quizID)
	if idx < 0 {
		return doc, models.QuizAttempt{}, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
	}
	quiz := doc.Quizzes[idx]
	student, ok := doc.FindUser(studentID)
	if !ok || student.Role != models.RoleStudent || student.SchoolID != quiz.SchoolID || student.ClassLevel != quiz.ClassLevel {
		return doc, models.QuizAttempt{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := checkAnswers(quiz, answers); err != nil {
		return doc, models.QuizAttempt{}, err
	}
	attempt := models.QuizAttempt{
		StudentID:   studentID,
		Answers:     make(map[string]int, len(answers)),
		Score:       ScoreQuiz(quiz, answers),
		SubmittedAt: now.UTC(),
	}
	for k, v := range answers {
		attempt.Answers[k] = v
	}
	next := doc.Clone()
	target := &next.Quizzes[idx]
	for i := range target.Attempts {
		if target.Attempts[i].StudentID == studentID {
			target.Attempts[i] = attempt
			return next, attempt, nil
		}
	}
	target.Attempts = append(target.Attempts, attempt)
	return next, attempt, nil
}

// checkAnswers rejects answers to questions the quiz does not have and option
// indices outside a question's options.
func checkAnswers(quiz models.Quiz, answers map[string]int) error {
	options := make(map[string]int, len(quiz.Questions))
	for _, q := range quiz.Questions {
		options[q.ID] = len(q.Options)
	}
	for questionID, chosen := range answers {
		n, ok := options[questionID]
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown question %q", questionID))
		}
		if chosen < 0 || chosen >= n {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("option %d out of range for question %q", chosen, questionID))
		}
	}
	return nil
}

// ScoreQuiz returns the rounded percentage of correctly answered questions.
func ScoreQuiz(quiz models.Quiz, answers map[string]int) int {
	if len(quiz.Questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range quiz.Questions {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectOptionIndex {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(quiz.Questions)) * 100))
}

// PostAnnouncement appends an announcement for the poster's school.
func PostAnnouncement(doc models.Document, ann models.Announcement, now time.Time) (models.Document, models.Announcement, error) {
	ann.Title = strings.TrimSpace(ann.Title)
	if ann.Title == "" || strings.TrimSpace(ann.Content) == "" {
		return doc, models.Announcement{}, appErrors.Clone(appErrors.ErrValidation, "title and content are required")
	}
	if len(ann.TargetRoles) == 0 {
		return doc, models.Announcement{}, appErrors.Clone(appErrors.ErrValidation, "at least one target role is required")
	}
	unique := make([]models.UserRole, 0, len(ann.TargetRoles))
	seen := map[models.UserRole]struct{}{}
	for _, role := range ann.TargetRoles {
		if !models.AnnouncementAudience(role) {
			return doc, models.Announcement{}, appErrors.Clone(appErrors.ErrValidation, "invalid target role "+string(role))
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		unique = append(unique, role)
	}
	ann.TargetRoles = unique
	if _, ok := doc.FindSchool(ann.SchoolID); !ok {
		return doc, models.Announcement{}, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	poster, ok := doc.FindUser(ann.PostedBy)
	if !ok || poster.SchoolID != ann.SchoolID {
		return doc, models.Announcement{}, appErrors.Clone(appErrors.ErrNotFound, "poster not found")
	}
	ann.PostedByName = poster.Name
	ann.CreatedAt = now.UTC()
	next := doc.Clone()
	next.Announcements = append(next.Announcements, ann.Clone())
	return next, ann, nil
}

// DeleteAnnouncement removes an announcement of the given school.
func DeleteAnnouncement(doc models.Document, announcementID, schoolID string) (models.Document, error) {
	for i, a := range doc.Announcements {
		if a.ID != announcementID || a.SchoolID != schoolID {
			continue
		}
		next := doc.Clone()
		next.Announcements = append(next.Announcements[:i], next.Announcements[i+1:]...)
		return next, nil
	}
	return doc, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
}

// CreateFee bills a student of the fee's school.
func CreateFee(doc models.Document, fee models.Fee) (models.Document, models.Fee, error) {
	fee.Title = strings.TrimSpace(fee.Title)
	if fee.Title == "" || strings.TrimSpace(fee.Month) == "" || fee.DueDate.IsZero() {
		return doc, models.Fee{}, appErrors.Clone(appErrors.ErrValidation, "title, month and due_date are required")
	}
	if fee.Amount <= 0 {
		return doc, models.Fee{}, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	student, ok := doc.FindUser(fee.StudentID)
	if !ok || student.Role != models.RoleStudent || student.SchoolID != fee.SchoolID {
		return doc, models.Fee{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	fee.DueDate = fee.DueDate.UTC()
	fee.Status = models.FeeStatusPending
	fee.PaidOn = nil
	next := doc.Clone()
	next.Fees = append(next.Fees, fee)
	return next, fee, nil
}

// PayFee marks a fee as paid. Paying twice keeps the first payment date.
func PayFee(doc models.Document, feeID string, now time.Time) (models.Document, models.Fee, error) {
	idx := doc.FeeIndex(feeID)
	if idx < 0 {
		return doc, models.Fee{}, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
	}
	if doc.Fees[idx].Status == models.FeeStatusPaid {
		return doc, doc.Fees[idx].Clone(), nil
	}
	next := doc.Clone()
	paidOn := now.UTC()
	next.Fees[idx].Status = models.FeeStatusPaid
	next.Fees[idx].PaidOn = &paidOn
	return next, next.Fees[idx].Clone(), nil
}

func ensureTeacher(doc models.Document, teacherID, schoolID string) error {
	teacher, ok := doc.FindUser(teacherID)
	if !ok || teacher.Role != models.RoleTeacher || teacher.SchoolID != schoolID || schoolID == "" {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}
