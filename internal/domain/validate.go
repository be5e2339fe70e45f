package domain

import (
	"fmt"
	"strings"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// ValidateDocument checks the cross-entity rules every committed document must
// hold. Commands keep them on their own; documents loaded from outside (seed
// fixtures) must be checked before they are committed. Problems are reported
// as VALIDATION_ERROR details keyed by the offending entity.
func ValidateDocument(doc models.Document) error {
	problems := map[string]string{}
	report := func(key, format string, args ...interface{}) {
		if _, seen := problems[key]; !seen {
			problems[key] = fmt.Sprintf(format, args...)
		}
	}

	schools := make(map[string]struct{}, len(doc.Schools))
	codes := make(map[string]string, len(doc.Schools))
	for _, s := range doc.Schools {
		key := "schools." + s.ID
		if s.ID == "" {
			report("schools", "school without id")
			continue
		}
		if _, dup := schools[s.ID]; dup {
			report(key, "duplicate school id")
		}
		schools[s.ID] = struct{}{}
		code := strings.ToUpper(strings.TrimSpace(s.RegistrationCode))
		if code == "" {
			continue
		}
		if other, dup := codes[code]; dup {
			report(key, "registration code %s already used by %s", code, other)
		}
		codes[code] = s.ID
	}

	users := make(map[string]models.User, len(doc.Users))
	emails := make(map[string]string, len(doc.Users))
	for _, u := range doc.Users {
		key := "users." + u.ID
		if u.ID == "" {
			report("users", "user without id")
			continue
		}
		if _, dup := users[u.ID]; dup {
			report(key, "duplicate user id")
		}
		users[u.ID] = u
		if !u.Role.Valid() {
			report(key, "unknown role %q", u.Role)
		}
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			report(key, "email is required")
		} else if other, dup := emails[email]; dup {
			report(key, "email %s already used by %s", email, other)
		} else {
			emails[email] = u.ID
		}
		if u.Role == models.RoleManagement {
			if u.SchoolID != "" {
				report(key, "management users belong to no school")
			}
			continue
		}
		if _, ok := schools[u.SchoolID]; !ok {
			report(key, "unknown school %q", u.SchoolID)
		}
	}
	for _, u := range doc.Users {
		if u.Role != models.RoleParent {
			continue
		}
		child, ok := users[u.ChildID]
		if !ok || child.Role != models.RoleStudent || child.SchoolID != u.SchoolID {
			report("users."+u.ID, "child %q is not a student of school %q", u.ChildID, u.SchoolID)
		}
	}

	taskIDs := make(map[string]struct{}, len(doc.Tasks))
	for _, t := range doc.Tasks {
		key := "tasks." + t.ID
		if _, dup := taskIDs[t.ID]; dup || t.ID == "" {
			report(key, "missing or duplicate task id")
		}
		taskIDs[t.ID] = struct{}{}
		if teacher, ok := users[t.TeacherID]; !ok || teacher.Role != models.RoleTeacher || teacher.SchoolID != t.SchoolID {
			report(key, "teacher %q is not a teacher of school %q", t.TeacherID, t.SchoolID)
		}
		submitted := make(map[string]struct{}, len(t.Submissions))
		for _, sub := range t.Submissions {
			subKey := key + ".submissions." + sub.StudentID
			if _, dup := submitted[sub.StudentID]; dup {
				report(subKey, "more than one submission for the student")
			}
			submitted[sub.StudentID] = struct{}{}
			if (sub.Grade == nil) != (sub.GradedAt == nil) {
				report(subKey, "grade and graded_at must be set together")
			}
		}
	}

	for _, q := range doc.Quizzes {
		key := "quizzes." + q.ID
		for _, question := range q.Questions {
			if len(question.Options) < 2 || question.CorrectOptionIndex < 0 || question.CorrectOptionIndex >= len(question.Options) {
				report(key+".questions."+question.ID, "needs at least two options and a valid correct option")
			}
		}
		attempted := make(map[string]struct{}, len(q.Attempts))
		for _, attempt := range q.Attempts {
			if _, dup := attempted[attempt.StudentID]; dup {
				report(key+".attempts."+attempt.StudentID, "more than one attempt for the student")
			}
			attempted[attempt.StudentID] = struct{}{}
		}
	}

	for _, f := range doc.Fees {
		key := "fees." + f.ID
		if student, ok := users[f.StudentID]; !ok || student.Role != models.RoleStudent {
			report(key, "unknown student %q", f.StudentID)
		}
		if (f.Status == models.FeeStatusPaid) != (f.PaidOn != nil) {
			report(key, "paid_on must be set exactly when the fee is paid")
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("document violates %d rule(s)", len(problems))).WithDetails(problems)
}
