package service

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

const (
	registrationCodeLength   = 6
	registrationCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	registrationCodeAttempts = 10
)

// UserService manages schools and accounts.
type UserService struct {
	commandRunner
	validator *validator.Validate
	hashCost  int
	newCode   func() (string, error)
}

// NewUserService constructs a UserService.
func NewUserService(deps Deps, validate *validator.Validate) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		commandRunner: newCommandRunner(deps),
		validator:     validate,
		hashCost:      bcrypt.DefaultCost,
		newCode:       generateRegistrationCode,
	}
}

// RegisterSchool creates a school with a fresh registration code and its
// first administrator.
func (s *UserService) RegisterSchool(ctx context.Context, req dto.RegisterSchoolRequest) (*dto.RegisterSchoolResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}
	hash, err := s.hashPassword(req.AdminPassword)
	if err != nil {
		return nil, err
	}

	schoolID := uuid.NewString()
	adminID := uuid.NewString()
	now := s.now()
	var result dto.RegisterSchoolResponse
	_, err = s.run(ctx, "school.register", func(doc models.Document) (models.Document, error) {
		code, err := s.uniqueCode(doc)
		if err != nil {
			return doc, err
		}
		school := models.School{
			ID:               schoolID,
			Name:             req.SchoolName,
			City:             req.City,
			Province:         req.Province,
			RegistrationCode: code,
			PrincipalName:    req.PrincipalName,
			Phone:            req.Phone,
			CreatedAt:        now,
		}
		admin := models.User{
			ID:           adminID,
			Name:         req.AdminName,
			Email:        req.AdminEmail,
			PasswordHash: hash,
			CreatedAt:    now,
		}
		next, err := domain.RegisterSchool(doc, school, admin)
		if err != nil {
			return doc, err
		}
		result.School, _ = next.FindSchool(schoolID)
		created, _ := next.FindUser(adminID)
		result.Admin = created.Sanitized()
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("school registered", zap.String("school_id", schoolID), zap.String("registration_code", result.School.RegistrationCode))
	return &result, nil
}

// Signup lets a student or parent join a school with its registration code.
func (s *UserService) Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid signup payload")
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.now()
	var created models.User
	_, err = s.run(ctx, "user.signup", func(doc models.Document) (models.Document, error) {
		school, ok := domain.SchoolByCode(doc, req.RegistrationCode)
		if !ok {
			return doc, appErrors.Clone(appErrors.ErrNotFound, "unknown registration code")
		}
		user := models.User{
			ID:           id,
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         req.Role,
			SchoolID:     school.ID,
			CreatedAt:    now,
			ClassLevel:   req.ClassLevel,
			Board:        req.Board,
			RollNumber:   req.RollNumber,
			ChildID:      req.ChildID,
		}
		next, err := domain.AddUser(doc, user)
		if err != nil {
			return doc, err
		}
		created, _ = next.FindUser(id)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("user_id", id), zap.String("role", string(created.Role)))
	sanitized := created.Sanitized()
	return &sanitized, nil
}

// Create adds a teacher, student or parent to the administrator's school.
func (s *UserService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid user payload")
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.now()
	var created models.User
	_, err = s.run(ctx, "user.create", func(doc models.Document) (models.Document, error) {
		actor, err := resolveViewer(doc, claims)
		if err != nil {
			return doc, err
		}
		if err := requireRole(actor, models.RoleSchoolAdmin); err != nil {
			return doc, err
		}
		next, err := domain.AddUser(doc, models.User{
			ID:              id,
			Name:            req.Name,
			Email:           req.Email,
			PasswordHash:    hash,
			Role:            req.Role,
			SchoolID:        actor.SchoolID,
			CreatedAt:       now,
			ClassLevel:      req.ClassLevel,
			Board:           req.Board,
			RollNumber:      req.RollNumber,
			Subjects:        req.Subjects,
			ClassesAssigned: req.ClassesAssigned,
			ChildID:         req.ChildID,
		})
		if err != nil {
			return doc, err
		}
		created, _ = next.FindUser(id)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", id), zap.String("role", string(created.Role)), zap.String("actor_id", claims.UserID))
	sanitized := created.Sanitized()
	return &sanitized, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	_, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	sanitized := viewer.Sanitized()
	return &sanitized, nil
}

// Students returns the student roster visible to the caller.
func (s *UserService) Students(ctx context.Context, claims *models.JWTClaims) ([]models.User, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleStudents(snap.Document, viewer), nil
}

// Teachers returns the teachers visible to the caller.
func (s *UserService) Teachers(ctx context.Context, claims *models.JWTClaims) ([]models.User, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleTeachers(snap.Document, viewer), nil
}

// Schools returns every school for management and the caller's own otherwise.
func (s *UserService) Schools(ctx context.Context, claims *models.JWTClaims) ([]models.School, error) {
	snap, viewer, err := s.read(ctx, claims)
	if err != nil {
		return nil, err
	}
	return domain.VisibleSchools(snap.Document, viewer), nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *UserService) uniqueCode(doc models.Document) (string, error) {
	for i := 0; i < registrationCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate registration code")
		}
		if _, taken := domain.SchoolByCode(doc, code); !taken {
			return code, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "could not allocate a registration code")
}

func generateRegistrationCode() (string, error) {
	max := big.NewInt(int64(len(registrationCodeAlphabet)))
	code := make([]byte, registrationCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = registrationCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
