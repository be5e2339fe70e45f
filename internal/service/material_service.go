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

// MaterialService manages study materials.
type MaterialService struct {
	commandRunner
	validator *validator.Validate
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(deps Deps, validate *validator.Validate) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{commandRunner: newCommandRunner(deps), validator: validate}
}

// List returns the materials visible to the caller.
func (s *MaterialService) List(ctx context.Context, claims *models.JWTClaims) ([]models.StudyMaterial, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleMaterials(snap.Document, viewer), nil
}

// Get returns a single visible material.
func (s *MaterialService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.StudyMaterial, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	material, err := domain.MaterialFor(snap.Document, viewer, id)
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// Create publishes a material authored by the calling teacher.
func (s *MaterialService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateMaterialRequest) (*models.StudyMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid material payload")
	}

	id := uuid.NewString()
	now := s.now()
	var created models.StudyMaterial
	_, err := s.run(ctx, "material.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher); err != nil {
			return doc, err
		}
		next, material, err := domain.CreateMaterial(doc, models.StudyMaterial{
			ID:         id,
			Title:      req.Title,
			Subject:    req.Subject,
			ClassLevel: req.ClassLevel,
			TeacherID:  actor.ID,
			SchoolID:   actor.SchoolID,
			Type:       req.Type,
			Content:    req.Content,
		}, now)
		if err != nil {
			return doc, err
		}
		created = material
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("material created", zap.String("material_id", created.ID))
	return &created, nil
}

// Delete removes a material. Only the teacher who created it may do so.
func (s *MaterialService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	_, err := s.run(ctx, "material.delete", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleTeacher); err != nil {
			return doc, err
		}
		if _, err := domain.MaterialFor(doc, actor, id); err != nil {
			return doc, err
		}
		return domain.DeleteMaterial(doc, id, actor.ID)
	})
	return err
}
