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

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	commandRunner
	validator *validator.Validate
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(deps Deps, validate *validator.Validate) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	svc := &AnnouncementService{commandRunner: newCommandRunner(deps), validator: validate}
	_ = svc.validator.RegisterValidation("audience", func(fl validator.FieldLevel) bool {
		return models.AnnouncementAudience(models.UserRole(fl.Field().String()))
	})
	return svc
}

// List returns the announcements addressed to the caller, newest first.
func (s *AnnouncementService) List(ctx context.Context, claims *models.JWTClaims) ([]models.Announcement, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleAnnouncements(snap.Document, viewer), nil
}

// Create posts an announcement to the caller's school.
func (s *AnnouncementService) Create(ctx context.Context, claims *models.JWTClaims, req dto.PostAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid announcement payload")
	}

	id := uuid.NewString()
	now := s.now()
	var posted models.Announcement
	_, err := s.run(ctx, "announcement.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleSchoolAdmin, models.RoleTeacher); err != nil {
			return doc, err
		}
		next, ann, err := domain.PostAnnouncement(doc, models.Announcement{
			ID:          id,
			Title:       req.Title,
			Content:     req.Content,
			SchoolID:    actor.SchoolID,
			PostedBy:    actor.ID,
			TargetRoles: req.TargetRoles,
		}, now)
		if err != nil {
			return doc, err
		}
		posted = ann
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("announcement posted", zap.String("announcement_id", posted.ID), zap.String("school_id", posted.SchoolID))
	return &posted, nil
}

// Delete removes an announcement. Teachers may only remove their own posts.
func (s *AnnouncementService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	_, err := s.run(ctx, "announcement.delete", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleSchoolAdmin, models.RoleTeacher); err != nil {
			return doc, err
		}
		if actor.Role == models.RoleTeacher {
			owned := false
			for _, a := range doc.Announcements {
				if a.ID == id && a.PostedBy == actor.ID {
					owned = true
					break
				}
			}
			if !owned {
				return doc, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
			}
		}
		return domain.DeleteAnnouncement(doc, id, actor.SchoolID)
	})
	return err
}
