package models

import "time"

// Announcement is a school notice targeted at a subset of roles.
type Announcement struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	SchoolID     string     `json:"school_id"`
	PostedBy     string     `json:"posted_by"`
	PostedByName string     `json:"posted_by_name"`
	TargetRoles  []UserRole `json:"target_roles"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Targets reports whether the announcement is addressed to the role.
func (a Announcement) Targets(role UserRole) bool {
	for _, target := range a.TargetRoles {
		if target == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the announcement.
func (a Announcement) Clone() Announcement {
	clone := a
	clone.TargetRoles = append([]UserRole(nil), a.TargetRoles...)
	return clone
}

// AnnouncementAudience reports whether the role may be targeted by announcements.
func AnnouncementAudience(role UserRole) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleParent:
		return true
	default:
		return false
	}
}
