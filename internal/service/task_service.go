package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

// TaskService runs the task lifecycle on behalf of authenticated users.
type TaskService struct {
	commandRunner
	validator *validator.Validate
}

// NewTaskService constructs a TaskService.
func NewTaskService(deps Deps, validate *validator.Validate) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{commandRunner: newCommandRunner(deps), validator: validate}
}

// Create adds a task. Teachers author their own tasks; school administrators
// name the teacher the task belongs to.
func (s *TaskService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid task payload")
	}

	id := uuid.NewString()
	now := s.now()
	var created models.Task
	_, err := s.run(ctx, "task.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		teacherID := actor.ID
		switch actor.Role {
		case models.RoleTeacher:
			if req.TeacherID != "" && req.TeacherID != actor.ID {
				return doc, appErrors.Clone(appErrors.ErrForbidden, "teachers create tasks for themselves only")
			}
		case models.RoleSchoolAdmin:
			if req.TeacherID == "" {
				return doc, appErrors.Clone(appErrors.ErrValidation, "missing required fields: teacher_id")
			}
			teacherID = req.TeacherID
		default:
			return doc, requireRole(actor, models.RoleTeacher, models.RoleSchoolAdmin)
		}

		next, task, err := domain.CreateTask(doc, id, domain.CreateTaskInput{
			Title:       req.Title,
			Description: req.Description,
			Subject:     req.Subject,
			ClassLevel:  req.ClassLevel,
			TeacherID:   teacherID,
			SchoolID:    actor.SchoolID,
			Type:        req.Type,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
		}, now)
		if err != nil {
			return doc, err
		}
		created = task
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", zap.String("task_id", created.ID), zap.String("teacher_id", created.TeacherID))
	return &created, nil
}

// Delete removes a task the caller authored or administers.
func (s *TaskService) Delete(ctx context.Context, claims *models.JWTClaims, taskID string) error {
	_, err := s.run(ctx, "task.delete", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher, models.RoleSchoolAdmin); err != nil {
			return doc, err
		}
		if _, err := domain.TaskFor(doc, actor, taskID); err != nil {
			return doc, err
		}
		return domain.DeleteTask(doc, taskID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("task deleted", zap.String("task_id", taskID), zap.String("user_id", claims.UserID))
	return nil
}

// Submit records the calling student's work, replacing any earlier submission.
func (s *TaskService) Submit(ctx context.Context, claims *models.JWTClaims, taskID string, req dto.SubmitTaskRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid submission payload")
	}

	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, models.Attachment{URL: att.URL})
	}

	now := s.now()
	var submitted models.Submission
	_, err := s.run(ctx, "task.submit", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleStudent); err != nil {
			return doc, err
		}
		if _, err := domain.TaskFor(doc, actor, taskID); err != nil {
			return doc, err
		}
		next, sub, err := domain.SubmitTask(doc, domain.SubmitTaskInput{
			TaskID:      taskID,
			StudentID:   actor.ID,
			Note:        req.Note,
			Attachments: attachments,
		}, now)
		if err != nil {
			return doc, err
		}
		submitted = sub
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task submitted", zap.String("task_id", taskID), zap.String("student_id", submitted.StudentID))
	return &submitted, nil
}

// Grade grades a student's submission on a task the caller authored or administers.
func (s *TaskService) Grade(ctx context.Context, claims *models.JWTClaims, taskID, studentID string, req dto.GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}

	now := s.now()
	var graded models.Submission
	_, err := s.run(ctx, "task.grade", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher, models.RoleSchoolAdmin); err != nil {
			return doc, err
		}
		if _, err := domain.TaskFor(doc, actor, taskID); err != nil {
			return doc, err
		}
		next, sub, err := domain.GradeSubmission(doc, domain.GradeSubmissionInput{
			TaskID:    taskID,
			StudentID: studentID,
			Grade:     req.Grade,
			Feedback:  req.Feedback,
		}, now)
		if err != nil {
			return doc, err
		}
		graded = sub
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission graded", zap.String("task_id", taskID), zap.String("student_id", studentID))
	return &graded, nil
}

// List returns the tasks visible to the caller. Students and parents also get
// the derived status of the student they follow.
func (s *TaskService) List(ctx context.Context, claims *models.JWTClaims, filter dto.TaskFilter) ([]dto.TaskView, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	studentID, follows := domain.FollowedStudent(snap.Document, viewer)
	if filter.Status != "" {
		if !validStatus(filter.Status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		if !follows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status filter applies to student and parent accounts only")
		}
	}

	now := s.now()
	views := make([]dto.TaskView, 0)
	for _, task := range domain.VisibleTasks(snap.Document, viewer) {
		if filter.Subject != "" && task.Subject != filter.Subject {
			continue
		}
		view := dto.TaskView{Task: task}
		if follows {
			status := domain.SubmissionStatus(task, studentID, now)
			if filter.Status != "" && status != filter.Status {
				continue
			}
			view.Status = &status
		}
		views = append(views, view)
	}
	return views, nil
}

// StatusOf derives the status of a student's work on a task. Students and
// parents always get their own or their child's status; staff name the student.
func (s *TaskService) StatusOf(ctx context.Context, claims *models.JWTClaims, taskID, studentID string) (*dto.TaskStatusResponse, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	doc := snap.Document

	if followed, ok := domain.FollowedStudent(doc, viewer); ok {
		if studentID != "" && studentID != followed {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		studentID = followed
	} else {
		if studentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
		}
		if _, err := domain.StudentFor(doc, viewer, studentID); err != nil {
			return nil, err
		}
	}

	task, err := domain.TaskFor(doc, viewer, taskID)
	if err != nil {
		return nil, err
	}
	student, ok := doc.FindUser(studentID)
	if !ok || student.SchoolID != task.SchoolID || student.ClassLevel != task.ClassLevel {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not assigned to task")
	}

	return &dto.TaskStatusResponse{
		TaskID:    task.ID,
		StudentID: studentID,
		Status:    domain.SubmissionStatus(task, studentID, s.now()),
	}, nil
}

func validStatus(status models.SubmissionStatus) bool {
	switch status {
	case models.StatusPending, models.StatusOverdue, models.StatusSubmitted, models.StatusGraded:
		return true
	default:
		return false
	}
}
