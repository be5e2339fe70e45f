// Package domain holds the pure rules of the task lifecycle: status
// derivation, snapshot transitions, per-role scoping and aggregation. Nothing
// in this package performs I/O or keeps state between calls.
package domain

import (
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// SubmissionStatus derives the state of studentID's work on task at now.
// Every status shown anywhere in the system comes from this function.
//
// Without a submission the task is overdue only once now is strictly after the
// due date. With a submission the task is graded when a grade is set and
// submitted otherwise; late submissions are not flagged.
func SubmissionStatus(task models.Task, studentID string, now time.Time) models.SubmissionStatus {
	sub, ok := task.SubmissionFor(studentID)
	if !ok {
		if now.After(task.DueDate) {
			return models.StatusOverdue
		}
		return models.StatusPending
	}
	if sub.Grade != nil {
		return models.StatusGraded
	}
	return models.StatusSubmitted
}

// IsTurnedIn reports whether the status counts as a completed submission.
func IsTurnedIn(status models.SubmissionStatus) bool {
	return status == models.StatusSubmitted || status == models.StatusGraded
}

// EffectiveFeeStatus reports a pending fee past its due date as overdue.
func EffectiveFeeStatus(fee models.Fee, now time.Time) models.FeeStatus {
	if fee.Status == models.FeeStatusPending && now.After(fee.DueDate) {
		return models.FeeStatusOverdue
	}
	return fee.Status
}
