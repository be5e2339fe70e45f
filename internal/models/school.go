package models

import "time"

// School is the tenant every non-management entity belongs to.
type School struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	City             string    `json:"city"`
	Province         string    `json:"province"`
	RegistrationCode string    `json:"registration_code"`
	PrincipalName    string    `json:"principal_name"`
	Phone            string    `json:"phone"`
	CreatedAt        time.Time `json:"created_at"`
}
