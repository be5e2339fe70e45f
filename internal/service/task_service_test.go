package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

func newTaskService(t *testing.T) (*TaskService, testEnv) {
	t.Helper()
	env := newTestEnv(t, seedDocument())
	svc := NewTaskService(env.deps(), nil)
	svc.now = fixedClock
	return svc, env
}

func validTaskRequest() dto.CreateTaskRequest {
	return dto.CreateTaskRequest{
		Title:       "Decimals",
		Description: "Exercises 1-10",
		Subject:     "Math",
		ClassLevel:  8,
		DueDate:     fixedNow.Add(24 * time.Hour),
	}
}

func TestTaskServiceCreateByTeacher(t *testing.T) {
	svc, env := newTaskService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, claimsFor("tch-1"), validTaskRequest())
	require.NoError(t, err)
	assert.Equal(t, "tch-1", task.TeacherID)
	assert.Equal(t, "sch-1", task.SchoolID)
	assert.Equal(t, models.TaskTypeOther, task.Type)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Empty(t, task.Submissions)

	doc := env.document(t)
	assert.GreaterOrEqual(t, doc.TaskIndex(task.ID), 0)
	assert.Equal(t, 1, env.cache.count())
	assert.Equal(t, []string{"ok"}, env.metrics.outcomes["task.create"])
}

func TestTaskServiceCreateRules(t *testing.T) {
	svc, env := newTaskService(t)
	ctx := context.Background()

	req := validTaskRequest()
	req.TeacherID = "tch-2"
	_, err := svc.Create(ctx, claimsFor("tch-1"), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))

	_, err = svc.Create(ctx, claimsFor("adm-1"), validTaskRequest())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	assert.Contains(t, err.Error(), "teacher_id")

	req = validTaskRequest()
	req.TeacherID = "tch-9"
	_, err = svc.Create(ctx, claimsFor("adm-1"), req)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), "teacher of another school")

	req = validTaskRequest()
	req.TeacherID = "tch-2"
	task, err := svc.Create(ctx, claimsFor("adm-1"), req)
	require.NoError(t, err)
	assert.Equal(t, "tch-2", task.TeacherID)

	_, err = svc.Create(ctx, claimsFor("stu-1"), validTaskRequest())
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))

	_, err = svc.Create(ctx, claimsFor("ghost"), validTaskRequest())
	assert.True(t, appErrors.IsCode(err, appErrors.ErrUnauthorized.Code))

	req = validTaskRequest()
	req.Title = ""
	req.Subject = ""
	_, err = svc.Create(ctx, claimsFor("tch-1"), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title, subject")

	assert.Equal(t, 1, env.cache.count(), "only the successful command invalidates")
}

func TestTaskServiceSubmitAndGrade(t *testing.T) {
	svc, env := newTaskService(t)
	ctx := context.Background()

	sub, err := svc.Submit(ctx, claimsFor("stu-1"), "task-math", dto.SubmitTaskRequest{
		Note:        " done ",
		Attachments: []dto.AttachmentRequest{{URL: "https://files/1.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", sub.Note)
	assert.Nil(t, sub.Grade)

	graded, err := svc.Grade(ctx, claimsFor("tch-1"), "task-math", "stu-1", dto.GradeSubmissionRequest{Grade: "A", Feedback: "nice"})
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, "A", *graded.Grade)

	status, err := svc.StatusOf(ctx, claimsFor("stu-1"), "task-math", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusGraded, status.Status)

	_, err = svc.Submit(ctx, claimsFor("stu-1"), "task-math", dto.SubmitTaskRequest{Note: "v2"})
	require.NoError(t, err)
	status, err = svc.StatusOf(ctx, claimsFor("par-1"), "task-math", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, status.Status, "resubmission voids the grade")

	task := env.document(t).Tasks[0]
	require.Len(t, task.Submissions, 1)
	assert.Equal(t, "v2", task.Submissions[0].Note)
}

func TestTaskServiceSubmitOutOfScope(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, claimsFor("stu-3"), "task-math", dto.SubmitTaskRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.Submit(ctx, claimsFor("stu-9"), "task-math", dto.SubmitTaskRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.Submit(ctx, claimsFor("tch-1"), "task-math", dto.SubmitTaskRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrForbidden.Code))

	_, err = svc.Grade(ctx, claimsFor("tch-2"), "task-math", "stu-1", dto.GradeSubmissionRequest{Grade: "B"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), "other teacher's task")

	_, err = svc.Grade(ctx, claimsFor("tch-1"), "task-math", "stu-2", dto.GradeSubmissionRequest{Grade: "B"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), "no submission yet")

	_, err = svc.Grade(ctx, claimsFor("tch-1"), "task-math", "stu-2", dto.GradeSubmissionRequest{})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
}

func TestTaskServiceDelete(t *testing.T) {
	svc, env := newTaskService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, claimsFor("tch-2"), "task-math")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	err = svc.Delete(ctx, claimsFor("adm-1"), "task-other")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), "admin of another school")

	require.NoError(t, svc.Delete(ctx, claimsFor("adm-1"), "task-phys"))
	require.NoError(t, svc.Delete(ctx, claimsFor("tch-1"), "task-math"))
	assert.Len(t, env.document(t).Tasks, 1)

	err = svc.Delete(ctx, claimsFor("tch-1"), "task-math")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	assert.Equal(t, []string{"not_found", "not_found", "ok", "ok", "not_found"}, env.metrics.outcomes["task.delete"])
}

func TestTaskServiceListWithStatus(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()

	views, err := svc.List(ctx, claimsFor("stu-3"), dto.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Status)
	assert.Equal(t, models.StatusOverdue, *views[0].Status)

	views, err = svc.List(ctx, claimsFor("stu-3"), dto.TaskFilter{Status: models.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, views)

	views, err = svc.List(ctx, claimsFor("adm-1"), dto.TaskFilter{Subject: "Math"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Status)

	_, err = svc.List(ctx, claimsFor("adm-1"), dto.TaskFilter{Status: models.StatusPending})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	_, err = svc.List(ctx, claimsFor("stu-1"), dto.TaskFilter{Status: "done"})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	views, err = svc.List(ctx, claimsFor("mgt-1"), dto.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, views, 3)
}

func TestTaskServiceStatusOfScoping(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()

	_, err := svc.StatusOf(ctx, claimsFor("par-1"), "task-math", "stu-2")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	_, err = svc.StatusOf(ctx, claimsFor("tch-1"), "task-math", "")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))

	status, err := svc.StatusOf(ctx, claimsFor("tch-1"), "task-math", "stu-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status.Status)

	_, err = svc.StatusOf(ctx, claimsFor("adm-1"), "task-math", "stu-3")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code), "student of another class")

	_, err = svc.StatusOf(ctx, claimsFor("mgt-1"), "task-math", "stu-9")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestTaskServiceCreateReportsFieldDetails(t *testing.T) {
	svc, _ := newTaskService(t)

	req := validTaskRequest()
	req.Priority = "urgent"
	_, err := svc.Create(context.Background(), claimsFor("tch-1"), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "oneof", appErr.Details["Priority"])
}
