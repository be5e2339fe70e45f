package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
)

// QuizService manages quizzes and student attempts.
type QuizService struct {
	commandRunner
	validator *validator.Validate
}

// NewQuizService constructs a QuizService.
func NewQuizService(deps Deps, validate *validator.Validate) *QuizService {
	if validate == nil {
		validate = validator.New()
	}
	return &QuizService{commandRunner: newCommandRunner(deps), validator: validate}
}

// List returns the quizzes visible to the caller.
func (s *QuizService) List(ctx context.Context, claims *models.JWTClaims) ([]models.Quiz, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleQuizzes(snap.Document, viewer), nil
}

// Get returns a single visible quiz.
func (s *QuizService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.Quiz, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	quiz, err := domain.QuizFor(snap.Document, viewer, id)
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Create publishes a quiz authored by the calling teacher.
func (s *QuizService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateQuizRequest) (*models.Quiz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid quiz payload")
	}

	questions := make([]models.QuizQuestion, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, models.QuizQuestion{
			ID:                 q.ID,
			Text:               q.Text,
			Options:            append([]string(nil), q.Options...),
			CorrectOptionIndex: q.CorrectOptionIndex,
		})
	}

	id := uuid.NewString()
	now := s.now()
	var created models.Quiz
	_, err := s.run(ctx, "quiz.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher); err != nil {
			return doc, err
		}
		next, quiz, err := domain.CreateQuiz(doc, models.Quiz{
			ID:         id,
			Title:      req.Title,
			Subject:    req.Subject,
			ClassLevel: req.ClassLevel,
			TeacherID:  actor.ID,
			SchoolID:   actor.SchoolID,
			DueDate:    req.DueDate,
			Questions:  questions,
		}, now)
		if err != nil {
			return doc, err
		}
		created = quiz
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("quiz created", zap.String("quiz_id", created.ID), zap.Int("questions", len(created.Questions)))
	return &created, nil
}

// Delete removes a quiz the caller authored or administers.
func (s *QuizService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	_, err := s.run(ctx, "quiz.delete", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher, models.RoleSchoolAdmin); err != nil {
			return doc, err
		}
		quiz, err := domain.QuizFor(doc, actor, id)
		if err != nil {
			return doc, err
		}
		author := actor.ID
		if actor.Role == models.RoleSchoolAdmin {
			author = quiz.TeacherID
		}
		return domain.DeleteQuiz(doc, id, author)
	})
	return err
}

// Attempt scores the calling student's answers, keeping only the latest attempt.
func (s *QuizService) Attempt(ctx context.Context, claims *models.JWTClaims, id string, req dto.QuizAttemptRequest) (*models.QuizAttempt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attempt payload")
	}

	now := s.now()
	var recorded models.QuizAttempt
	_, err := s.run(ctx, "quiz.attempt", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleStudent); err != nil {
			return doc, err
		}
		if _, err := domain.QuizFor(doc, actor, id); err != nil {
			return doc, err
		}
		next, attempt, err := domain.AttemptQuiz(doc, id, actor.ID, req.Answers, now)
		if err != nil {
			return doc, err
		}
		recorded = attempt
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("quiz attempted", zap.String("quiz_id", id), zap.String("student_id", recorded.StudentID), zap.Int("score", recorded.Score))
	return &recorded, nil
}
