package dto

import "github.com/noah-isme/edutask-api/internal/models"

// RegisterSchoolRequest captures POST /schools/register payload.
type RegisterSchoolRequest struct {
	SchoolName    string `json:"schoolName" validate:"required,max=200"`
	City          string `json:"city" validate:"max=100"`
	Province      string `json:"province" validate:"max=100"`
	PrincipalName string `json:"principalName" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=32"`
	AdminName     string `json:"adminName" validate:"required,max=200"`
	AdminEmail    string `json:"adminEmail" validate:"required,email"`
	AdminPassword string `json:"adminPassword" validate:"required,min=8"`
}

// RegisterSchoolResponse returns the new school and its first administrator.
type RegisterSchoolResponse struct {
	School models.School `json:"school"`
	Admin  models.User   `json:"admin"`
}

// SignupRequest captures POST /auth/signup payload for students and parents.
type SignupRequest struct {
	RegistrationCode string          `json:"registrationCode" validate:"required,len=6"`
	Name             string          `json:"name" validate:"required,max=200"`
	Email            string          `json:"email" validate:"required,email"`
	Password         string          `json:"password" validate:"required,min=8"`
	Role             models.UserRole `json:"role" validate:"required,oneof=student parent"`
	ClassLevel       int             `json:"classLevel" validate:"required_if=Role student,max=12"`
	Board            string          `json:"board" validate:"max=32"`
	RollNumber       string          `json:"rollNumber" validate:"max=32"`
	ChildID          string          `json:"childId" validate:"required_if=Role parent"`
}

// CreateUserRequest captures POST /users payload used by school administrators.
type CreateUserRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Email           string          `json:"email" validate:"required,email"`
	Password        string          `json:"password" validate:"required,min=8"`
	Role            models.UserRole `json:"role" validate:"required,oneof=teacher student parent"`
	ClassLevel      int             `json:"classLevel" validate:"required_if=Role student,max=12"`
	Board           string          `json:"board" validate:"max=32"`
	RollNumber      string          `json:"rollNumber" validate:"max=32"`
	Subjects        []string        `json:"subjects" validate:"omitempty,dive,required"`
	ClassesAssigned []int           `json:"classesAssigned" validate:"omitempty,dive,min=1,max=12"`
	ChildID         string          `json:"childId" validate:"required_if=Role parent"`
}
