package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/models"
)

func TestSubmissionStatusBranches(t *testing.T) {
	task := models.Task{ID: "t", DueDate: baseTime}

	assert.Equal(t, models.StatusPending, SubmissionStatus(task, "stu-1", baseTime.Add(-time.Minute)))
	assert.Equal(t, models.StatusPending, SubmissionStatus(task, "stu-1", baseTime), "due date itself is not overdue")
	assert.Equal(t, models.StatusOverdue, SubmissionStatus(task, "stu-1", baseTime.Add(time.Nanosecond)))

	task.Submissions = []models.Submission{{StudentID: "stu-1", SubmittedAt: baseTime.Add(48 * time.Hour)}}
	assert.Equal(t, models.StatusSubmitted, SubmissionStatus(task, "stu-1", baseTime.Add(72*time.Hour)), "late submissions are not flagged")

	task.Submissions[0].Grade = ptrString("B+")
	assert.Equal(t, models.StatusGraded, SubmissionStatus(task, "stu-1", baseTime))
	assert.Equal(t, models.StatusOverdue, SubmissionStatus(task, "stu-2", baseTime.Add(time.Hour)))
}

func TestSubmissionStatusIsExhaustive(t *testing.T) {
	doc, _, students := networkScenario()
	allowed := map[models.SubmissionStatus]bool{
		models.StatusPending: true, models.StatusOverdue: true, models.StatusSubmitted: true, models.StatusGraded: true,
	}
	for _, now := range []time.Time{baseTime.Add(-time.Hour), baseTime, baseTime.Add(time.Hour)} {
		for _, task := range doc.Tasks {
			for _, student := range students {
				status := SubmissionStatus(task, student.ID, now)
				require.True(t, allowed[status])
				sub, exists := task.SubmissionFor(student.ID)
				if status == models.StatusGraded {
					require.True(t, exists)
					require.NotNil(t, sub.Grade)
				}
				if IsTurnedIn(status) {
					require.True(t, exists)
				} else {
					require.False(t, exists)
				}
			}
		}
	}
}

func TestTaskLifecycleScenario(t *testing.T) {
	doc := seededDocument()
	now := baseTime
	doc, task, err := CreateTask(doc, "task-new", CreateTaskInput{
		Title: "Algebra", Description: "ex 1-10", Subject: "Math", ClassLevel: 8,
		TeacherID: "tch-1", SchoolID: "sch-1", DueDate: now.Add(72 * time.Hour),
	}, now)
	require.NoError(t, err)

	status := func(at time.Time) models.SubmissionStatus {
		current, ok := doc.FindTask(task.ID)
		require.True(t, ok)
		return SubmissionStatus(current, "stu-1", at)
	}

	assert.Equal(t, models.StatusPending, status(now))

	later := now.Add(96 * time.Hour)
	assert.Equal(t, models.StatusOverdue, status(later))

	doc, _, err = SubmitTask(doc, SubmitTaskInput{TaskID: task.ID, StudentID: "stu-1", Note: "done"}, later)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, status(later))

	doc, graded, err := GradeSubmission(doc, GradeSubmissionInput{TaskID: task.ID, StudentID: "stu-1", Grade: "B+"}, later)
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, "B+", *graded.Grade)
	assert.Equal(t, models.StatusGraded, status(later))

	doc, _, err = SubmitTask(doc, SubmitTaskInput{TaskID: task.ID, StudentID: "stu-1", Note: "revised"}, later.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, status(later))
	current, _ := doc.FindTask(task.ID)
	sub, ok := current.SubmissionFor("stu-1")
	require.True(t, ok)
	assert.Nil(t, sub.Grade)
	assert.Nil(t, sub.GradedAt)
	assert.Empty(t, sub.Feedback)
}

func TestEffectiveFeeStatus(t *testing.T) {
	fee := models.Fee{Status: models.FeeStatusPending, DueDate: baseTime}
	assert.Equal(t, models.FeeStatusPending, EffectiveFeeStatus(fee, baseTime))
	assert.Equal(t, models.FeeStatusOverdue, EffectiveFeeStatus(fee, baseTime.Add(time.Second)))

	paidOn := baseTime.Add(time.Hour)
	fee.Status, fee.PaidOn = models.FeeStatusPaid, &paidOn
	assert.Equal(t, models.FeeStatusPaid, EffectiveFeeStatus(fee, baseTime.Add(48*time.Hour)))
}
