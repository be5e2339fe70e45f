package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/store"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

const dashboardCachePattern = "dash:*"

type documentStore interface {
	Snapshot(ctx context.Context) (store.Snapshot, error)
	Mutate(ctx context.Context, fn store.MutateFunc) (store.Snapshot, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type commandRecorder interface {
	RecordCommand(command, outcome string)
}

// Deps bundles the collaborators shared by services that read or change the
// document.
type Deps struct {
	Store   documentStore
	Cache   cacheInvalidator
	Metrics commandRecorder
	Logger  *zap.Logger
}

type commandRunner struct {
	store   documentStore
	cache   cacheInvalidator
	metrics commandRecorder
	logger  *zap.Logger
	now     func() time.Time
}

func newCommandRunner(deps Deps) commandRunner {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return commandRunner{
		store:   deps.Store,
		cache:   deps.Cache,
		metrics: deps.Metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// run commits fn through the store, records the outcome and drops cached
// dashboards once something changed.
func (r commandRunner) run(ctx context.Context, command string, fn store.MutateFunc) (store.Snapshot, error) {
	snap, err := r.store.Mutate(ctx, fn)
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(appErrors.FromError(err).Code)
	}
	if r.metrics != nil {
		r.metrics.RecordCommand(command, outcome)
	}
	if err != nil {
		if appErrors.FromError(err).Status >= 500 {
			r.logger.Error("command failed", zap.String("command", command), zap.Error(err))
		}
		return store.Snapshot{}, err
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, dashboardCachePattern); err != nil {
			r.logger.Warn("failed to invalidate dashboards", zap.String("command", command), zap.Error(err))
		}
	}
	return snap, nil
}

// read returns the committed document together with the requesting viewer.
func (r commandRunner) read(ctx context.Context, claims *models.JWTClaims) (store.Snapshot, models.User, error) {
	snap, err := r.store.Snapshot(ctx)
	if err != nil {
		return store.Snapshot{}, models.User{}, err
	}
	viewer, err := resolveViewer(snap.Document, claims)
	if err != nil {
		return store.Snapshot{}, models.User{}, err
	}
	return snap, viewer, nil
}

// resolveViewer loads the caller from the document so that role or school
// changes apply to tokens issued earlier.
func resolveViewer(doc models.Document, claims *models.JWTClaims) (models.User, error) {
	if claims == nil || claims.UserID == "" {
		return models.User{}, appErrors.ErrUnauthorized
	}
	user, ok := doc.FindUser(claims.UserID)
	if !ok {
		return models.User{}, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	return user, nil
}

func requireRole(user models.User, roles ...models.UserRole) error {
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role "+string(user.Role)+" may not perform this action")
}

// validationError maps validator failures to a VALIDATION_ERROR whose details
// name each offending field and the rule it broke.
func validationError(err error, message string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErr
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fe.Tag()
	}
	return appErr.WithDetails(details)
}
