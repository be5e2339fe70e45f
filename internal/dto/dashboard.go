package dto

import (
	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/models"
)

// DashboardMeta identifies the snapshot a dashboard was computed from.
type DashboardMeta struct {
	Version     int64  `json:"version"`
	GeneratedAt string `json:"generatedAt"`
}

// StudentDashboardResponse summarises a student's own work.
type StudentDashboardResponse struct {
	StudentID      string                   `json:"studentId"`
	Breakdown      domain.StatusBreakdown   `json:"breakdown"`
	CompletionRate int                      `json:"completionRate"`
	Upcoming       []TaskView               `json:"upcoming"`
	RecentGrades   []GradedTask             `json:"recentGrades"`
	Subjects       []domain.SubjectActivity `json:"subjects"`
	Announcements  int                      `json:"announcements"`
	PendingFees    int                      `json:"pendingFees"`
	Meta           DashboardMeta            `json:"meta"`
}

// GradedTask is a graded submission shown on dashboards.
type GradedTask struct {
	TaskID   string `json:"taskId"`
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Grade    string `json:"grade"`
	Feedback string `json:"feedback,omitempty"`
	GradedAt string `json:"gradedAt"`
}

// TeacherDashboardResponse summarises the tasks a teacher authored.
type TeacherDashboardResponse struct {
	TeacherID      string                   `json:"teacherId"`
	Rollup         domain.TeacherRollup     `json:"rollup"`
	StudentCount   int                      `json:"studentCount"`
	SubmissionRate int                      `json:"submissionRate"`
	AwaitingGrade  int                      `json:"awaitingGrade"`
	Tasks          []domain.TaskProgress    `json:"tasks"`
	Subjects       []domain.SubjectActivity `json:"subjects"`
	Meta           DashboardMeta            `json:"meta"`
}

// SchoolDashboardResponse summarises a school for its administrator.
type SchoolDashboardResponse struct {
	School        models.School            `json:"school"`
	Rollup        domain.SchoolRollup      `json:"rollup"`
	Teachers      []domain.TeacherRollup   `json:"teachers"`
	Subjects      []domain.SubjectActivity `json:"subjects"`
	Fees          FeeSummary               `json:"fees"`
	Announcements int                      `json:"announcements"`
	Meta          DashboardMeta            `json:"meta"`
}

// FeeSummary counts fees by effective status.
type FeeSummary struct {
	Pending           int     `json:"pending"`
	Overdue           int     `json:"overdue"`
	Paid              int     `json:"paid"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	CollectedAmount   float64 `json:"collectedAmount"`
}

// ParentDashboardResponse summarises the linked child.
type ParentDashboardResponse struct {
	Child          models.User            `json:"child"`
	Breakdown      domain.StatusBreakdown `json:"breakdown"`
	CompletionRate int                    `json:"completionRate"`
	Tasks          []TaskView             `json:"tasks"`
	Teachers       []models.User          `json:"teachers"`
	Fees           FeeSummary             `json:"fees"`
	Announcements  int                    `json:"announcements"`
	Meta           DashboardMeta          `json:"meta"`
}

// ManagementDashboardResponse summarises the whole network.
type ManagementDashboardResponse struct {
	Network  domain.NetworkRollup     `json:"network"`
	Subjects []domain.SubjectActivity `json:"subjects"`
	Meta     DashboardMeta            `json:"meta"`
}
