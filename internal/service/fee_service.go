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

// FeeService bills students and records payments.
type FeeService struct {
	commandRunner
	validator *validator.Validate
}

// NewFeeService constructs a FeeService.
func NewFeeService(deps Deps, validate *validator.Validate) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	return &FeeService{commandRunner: newCommandRunner(deps), validator: validate}
}

// List returns the fees visible to the caller with their status as of now.
func (s *FeeService) List(ctx context.Context, claims *models.JWTClaims) ([]dto.FeeView, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	now := s.now()
	fees := domain.VisibleFees(snap.Document, viewer)
	views := make([]dto.FeeView, 0, len(fees))
	for _, fee := range fees {
		views = append(views, dto.FeeView{Fee: fee, EffectiveStatus: domain.EffectiveFeeStatus(fee, now)})
	}
	return views, nil
}

// Create bills a student of the administrator's school.
func (s *FeeService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid fee payload")
	}

	id := uuid.NewString()
	var created models.Fee
	_, err := s.run(ctx, "fee.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleSchoolAdmin); err != nil {
			return doc, err
		}
		next, fee, err := domain.CreateFee(doc, models.Fee{
			ID:        id,
			StudentID: req.StudentID,
			SchoolID:  actor.SchoolID,
			Title:     req.Title,
			Month:     req.Month,
			Amount:    req.Amount,
			DueDate:   req.DueDate,
		})
		if err != nil {
			return doc, err
		}
		created = fee
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fee created", zap.String("fee_id", created.ID), zap.String("student_id", created.StudentID))
	return &created, nil
}

// Pay marks a fee as paid. Administrators pay any fee of their school and
// parents the fees of their child.
func (s *FeeService) Pay(ctx context.Context, claims *models.JWTClaims, id string) (*models.Fee, error) {
	now := s.now()
	var paid models.Fee
	_, err := s.run(ctx, "fee.pay", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleSchoolAdmin, models.RoleParent); err != nil {
			return doc, err
		}
		if _, err := domain.FeeFor(doc, actor, id); err != nil {
			return doc, err
		}
		next, fee, err := domain.PayFee(doc, id, now)
		if err != nil {
			return doc, err
		}
		paid = fee
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fee paid", zap.String("fee_id", id))
	return &paid, nil
}
