package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent     UserRole = "student"
	RoleTeacher     UserRole = "teacher"
	RoleSchoolAdmin UserRole = "school_admin"
	RoleParent      UserRole = "parent"
	RoleManagement  UserRole = "management"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleSchoolAdmin, RoleParent, RoleManagement:
		return true
	default:
		return false
	}
}

// User represents an account of any role. Role specific fields are left
// empty for the roles that do not use them.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         UserRole  `json:"role"`
	SchoolID     string    `json:"school_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// student
	ClassLevel int    `json:"class_level,omitempty"`
	Board      string `json:"board,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`

	// teacher
	Subjects        []string `json:"subjects,omitempty"`
	ClassesAssigned []int    `json:"classes_assigned,omitempty"`

	// parent
	ChildID string `json:"child_id,omitempty"`
}

// Sanitized returns a copy safe to expose over the API.
func (u User) Sanitized() User {
	clone := u.Clone()
	clone.PasswordHash = ""
	return clone
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	clone := u
	if u.Subjects != nil {
		clone.Subjects = append([]string(nil), u.Subjects...)
	}
	if u.ClassesAssigned != nil {
		clone.ClassesAssigned = append([]int(nil), u.ClassesAssigned...)
	}
	return clone
}

// TeachesClass reports whether the teacher is assigned to the class level.
func (u User) TeachesClass(classLevel int) bool {
	for _, level := range u.ClassesAssigned {
		if level == classLevel {
			return true
		}
	}
	return false
}

// SanitizeUsers strips credentials from every user in the list.
func SanitizeUsers(users []User) []User {
	result := make([]User, 0, len(users))
	for _, u := range users {
		result = append(result, u.Sanitized())
	}
	return result
}
