package domain

import (
	"sort"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// The functions below decide what a viewer may see. They are evaluated on
// every read against the snapshot at hand; list, count and export paths all go
// through them. Entities outside the viewer's scope are reported as not found.

type classKey struct {
	schoolID   string
	classLevel int
	teacherID  string
}

// classScope returns the school and class level whose content the viewer
// follows: their own for a student, the linked child's for a parent.
func classScope(doc models.Document, viewer models.User) (string, int, bool) {
	switch viewer.Role {
	case models.RoleStudent:
		return viewer.SchoolID, viewer.ClassLevel, viewer.SchoolID != ""
	case models.RoleParent:
		child, ok := LinkedChild(doc, viewer)
		if !ok {
			return "", 0, false
		}
		return child.SchoolID, child.ClassLevel, true
	default:
		return "", 0, false
	}
}

// LinkedChild resolves a parent's child. The link only counts when the child
// is a student of the parent's school.
func LinkedChild(doc models.Document, parent models.User) (models.User, bool) {
	if parent.Role != models.RoleParent || parent.ChildID == "" {
		return models.User{}, false
	}
	child, ok := doc.FindUser(parent.ChildID)
	if !ok || child.Role != models.RoleStudent || child.SchoolID != parent.SchoolID {
		return models.User{}, false
	}
	return child, true
}

func visible[T any](doc models.Document, viewer models.User, items []T, key func(T) classKey) []T {
	result := make([]T, 0)
	switch viewer.Role {
	case models.RoleStudent, models.RoleParent:
		schoolID, level, ok := classScope(doc, viewer)
		if !ok {
			return result
		}
		for _, item := range items {
			k := key(item)
			if k.schoolID == schoolID && k.classLevel == level {
				result = append(result, item)
			}
		}
	case models.RoleTeacher:
		for _, item := range items {
			if key(item).teacherID == viewer.ID {
				result = append(result, item)
			}
		}
	case models.RoleSchoolAdmin:
		if viewer.SchoolID == "" {
			return result
		}
		for _, item := range items {
			if key(item).schoolID == viewer.SchoolID {
				result = append(result, item)
			}
		}
	case models.RoleManagement:
		result = append(result, items...)
	}
	return result
}

// VisibleTasks returns the tasks the viewer may see, ordered by due date.
// Students and parents only receive the submission of the student concerned.
func VisibleTasks(doc models.Document, viewer models.User) []models.Task {
	tasks := visible(doc, viewer, doc.Tasks, func(t models.Task) classKey {
		return classKey{schoolID: t.SchoolID, classLevel: t.ClassLevel, teacherID: t.TeacherID}
	})
	ownerID, restricted := FollowedStudent(doc, viewer)
	for i := range tasks {
		tasks[i] = tasks[i].Clone()
		if restricted {
			own := make([]models.Submission, 0, 1)
			if sub, ok := tasks[i].SubmissionFor(ownerID); ok {
				own = append(own, sub)
			}
			tasks[i].Submissions = own
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	return tasks
}

// VisibleMaterials returns the study materials the viewer may see.
func VisibleMaterials(doc models.Document, viewer models.User) []models.StudyMaterial {
	return visible(doc, viewer, doc.Materials, func(m models.StudyMaterial) classKey {
		return classKey{schoolID: m.SchoolID, classLevel: m.ClassLevel, teacherID: m.TeacherID}
	})
}

// VisibleQuizzes returns the quizzes the viewer may see. Students and parents
// never receive the answer key or other students' attempts.
func VisibleQuizzes(doc models.Document, viewer models.User) []models.Quiz {
	quizzes := visible(doc, viewer, doc.Quizzes, func(q models.Quiz) classKey {
		return classKey{schoolID: q.SchoolID, classLevel: q.ClassLevel, teacherID: q.TeacherID}
	})
	for i := range quizzes {
		quizzes[i] = redactQuiz(doc, viewer, quizzes[i])
	}
	return quizzes
}

func redactQuiz(doc models.Document, viewer models.User, quiz models.Quiz) models.Quiz {
	if ownerID, restricted := FollowedStudent(doc, viewer); restricted {
		return quiz.WithoutAnswers(ownerID)
	}
	return quiz.Clone()
}

// FollowedStudent returns whose work a student or parent viewer is limited to.
func FollowedStudent(doc models.Document, viewer models.User) (string, bool) {
	switch viewer.Role {
	case models.RoleStudent:
		return viewer.ID, true
	case models.RoleParent:
		child, _ := LinkedChild(doc, viewer)
		return child.ID, true
	default:
		return "", false
	}
}

// VisibleStudents returns the student roster the viewer may see.
func VisibleStudents(doc models.Document, viewer models.User) []models.User {
	result := make([]models.User, 0)
	switch viewer.Role {
	case models.RoleStudent:
		result = append(result, viewer)
	case models.RoleParent:
		if child, ok := LinkedChild(doc, viewer); ok {
			result = append(result, child)
		}
	case models.RoleTeacher:
		for _, u := range doc.UsersByRole(models.RoleStudent, viewer.SchoolID) {
			if viewer.SchoolID != "" && viewer.TeachesClass(u.ClassLevel) {
				result = append(result, u)
			}
		}
	case models.RoleSchoolAdmin:
		if viewer.SchoolID != "" {
			result = append(result, doc.UsersByRole(models.RoleStudent, viewer.SchoolID)...)
		}
	case models.RoleManagement:
		result = append(result, doc.UsersByRole(models.RoleStudent, "")...)
	}
	return models.SanitizeUsers(result)
}

// VisibleTeachers returns the teachers the viewer may see. Students and
// parents only see teachers assigned to the relevant class level.
func VisibleTeachers(doc models.Document, viewer models.User) []models.User {
	result := make([]models.User, 0)
	switch viewer.Role {
	case models.RoleStudent, models.RoleParent:
		schoolID, level, ok := classScope(doc, viewer)
		if !ok {
			break
		}
		for _, u := range doc.UsersByRole(models.RoleTeacher, schoolID) {
			if u.TeachesClass(level) {
				result = append(result, u)
			}
		}
	case models.RoleTeacher:
		result = append(result, viewer)
	case models.RoleSchoolAdmin:
		if viewer.SchoolID != "" {
			result = append(result, doc.UsersByRole(models.RoleTeacher, viewer.SchoolID)...)
		}
	case models.RoleManagement:
		result = append(result, doc.UsersByRole(models.RoleTeacher, "")...)
	}
	return models.SanitizeUsers(result)
}

// VisibleAnnouncements returns announcements addressed to the viewer, newest first.
func VisibleAnnouncements(doc models.Document, viewer models.User) []models.Announcement {
	result := make([]models.Announcement, 0)
	schoolID := viewer.SchoolID
	if viewer.Role == models.RoleParent {
		child, ok := LinkedChild(doc, viewer)
		if !ok {
			return result
		}
		schoolID = child.SchoolID
	}
	for _, a := range doc.Announcements {
		switch viewer.Role {
		case models.RoleStudent, models.RoleTeacher, models.RoleParent:
			if schoolID != "" && a.SchoolID == schoolID && a.Targets(viewer.Role) {
				result = append(result, a.Clone())
			}
		case models.RoleSchoolAdmin:
			if schoolID != "" && a.SchoolID == schoolID {
				result = append(result, a.Clone())
			}
		case models.RoleManagement:
			result = append(result, a.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// VisibleFees returns the fee records the viewer may see.
func VisibleFees(doc models.Document, viewer models.User) []models.Fee {
	result := make([]models.Fee, 0)
	for _, f := range doc.Fees {
		switch viewer.Role {
		case models.RoleStudent:
			if f.StudentID == viewer.ID {
				result = append(result, f.Clone())
			}
		case models.RoleParent:
			if child, ok := LinkedChild(doc, viewer); ok && f.StudentID == child.ID {
				result = append(result, f.Clone())
			}
		case models.RoleSchoolAdmin:
			if viewer.SchoolID != "" && f.SchoolID == viewer.SchoolID {
				result = append(result, f.Clone())
			}
		case models.RoleManagement:
			result = append(result, f.Clone())
		}
	}
	return result
}

// VisibleSchools returns every school for management and the own school otherwise.
func VisibleSchools(doc models.Document, viewer models.User) []models.School {
	result := make([]models.School, 0)
	for _, s := range doc.Schools {
		if viewer.Role == models.RoleManagement || (viewer.SchoolID != "" && s.ID == viewer.SchoolID) {
			result = append(result, s)
		}
	}
	return result
}

// TaskFor returns a task by id when the viewer may see it.
func TaskFor(doc models.Document, viewer models.User, taskID string) (models.Task, error) {
	for _, t := range VisibleTasks(doc, viewer) {
		if t.ID == taskID {
			return t, nil
		}
	}
	return models.Task{}, appErrors.Clone(appErrors.ErrNotFound, "task not found")
}

// MaterialFor returns a material by id when the viewer may see it.
func MaterialFor(doc models.Document, viewer models.User, materialID string) (models.StudyMaterial, error) {
	for _, m := range VisibleMaterials(doc, viewer) {
		if m.ID == materialID {
			return m, nil
		}
	}
	return models.StudyMaterial{}, appErrors.Clone(appErrors.ErrNotFound, "material not found")
}

// QuizFor returns a quiz by id when the viewer may see it.
func QuizFor(doc models.Document, viewer models.User, quizID string) (models.Quiz, error) {
	for _, q := range VisibleQuizzes(doc, viewer) {
		if q.ID == quizID {
			return q, nil
		}
	}
	return models.Quiz{}, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
}

// FeeFor returns a fee by id when the viewer may see it.
func FeeFor(doc models.Document, viewer models.User, feeID string) (models.Fee, error) {
	for _, f := range VisibleFees(doc, viewer) {
		if f.ID == feeID {
			return f, nil
		}
	}
	return models.Fee{}, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
}

// StudentFor returns a student by id when the viewer may see them.
func StudentFor(doc models.Document, viewer models.User, studentID string) (models.User, error) {
	for _, s := range VisibleStudents(doc, viewer) {
		if s.ID == studentID {
			return s, nil
		}
	}
	return models.User{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}
