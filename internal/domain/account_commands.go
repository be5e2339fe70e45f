package domain

import (
	"strings"

	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// RegisterSchool adds a school together with its first administrator.
// The registration code must be unused.
func RegisterSchool(doc models.Document, school models.School, admin models.User) (models.Document, error) {
	school.Name = strings.TrimSpace(school.Name)
	school.RegistrationCode = strings.ToUpper(strings.TrimSpace(school.RegistrationCode))
	if school.ID == "" || school.Name == "" || school.RegistrationCode == "" {
		return doc, appErrors.Clone(appErrors.ErrValidation, "school id, name and registration code are required")
	}
	if _, ok := SchoolByCode(doc, school.RegistrationCode); ok {
		return doc, appErrors.Clone(appErrors.ErrConflict, "registration code already issued")
	}
	next := doc.Clone()
	next.Schools = append(next.Schools, school)

	admin.Role = models.RoleSchoolAdmin
	admin.SchoolID = school.ID
	next, err := AddUser(next, admin)
	if err != nil {
		return doc, err
	}
	return next, nil
}

// SchoolByCode resolves a registration code, case-insensitively.
func SchoolByCode(doc models.Document, code string) (models.School, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.School{}, false
	}
	for _, s := range doc.Schools {
		if s.RegistrationCode == code {
			return s, true
		}
	}
	return models.School{}, false
}

// UserByEmail looks a user up case-insensitively.
func UserByEmail(doc models.Document, email string) (models.User, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range doc.Users {
		if strings.ToLower(u.Email) == email {
			return u, true
		}
	}
	return models.User{}, false
}

// AddUser validates the role specific fields and appends the user.
// A parent must reference an existing student of the same school.
func AddUser(doc models.Document, user models.User) (models.Document, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.ID == "" || user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		return doc, appErrors.Clone(appErrors.ErrValidation, "id, name, email and password are required")
	}
	if !user.Role.Valid() {
		return doc, appErrors.Clone(appErrors.ErrValidation, "invalid role")
	}
	if _, exists := UserByEmail(doc, user.Email); exists {
		return doc, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	if user.Role == models.RoleManagement {
		user.SchoolID = ""
	} else if _, ok := doc.FindSchool(user.SchoolID); !ok {
		return doc, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}

	switch user.Role {
	case models.RoleStudent:
		if user.ClassLevel <= 0 {
			return doc, appErrors.Clone(appErrors.ErrValidation, "class_level is required for students")
		}
	case models.RoleTeacher:
		for _, level := range user.ClassesAssigned {
			if level <= 0 {
				return doc, appErrors.Clone(appErrors.ErrValidation, "classes_assigned must be positive")
			}
		}
	case models.RoleParent:
		child, ok := doc.FindUser(user.ChildID)
		if user.ChildID == "" || !ok || child.Role != models.RoleStudent || child.SchoolID != user.SchoolID {
			return doc, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
	}
	if user.Role != models.RoleStudent {
		user.ClassLevel, user.Board, user.RollNumber = 0, "", ""
	}
	if user.Role != models.RoleTeacher {
		user.Subjects, user.ClassesAssigned = nil, nil
	}
	if user.Role != models.RoleParent {
		user.ChildID = ""
	}

	next := doc.Clone()
	next.Users = append(next.Users, user.Clone())
	return next, nil
}
