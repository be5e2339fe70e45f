package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edutask-api/internal/domain"
	"github.com/noah-isme/edutask-api/internal/dto"
	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/store"
	appErrors "github.com/noah-isme/edutask-api/pkg/errors"
)

type dashboardCache interface {
	Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) (bool, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	UpcomingLimit     int
	RecentGradesLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Store  documentStore
	Cache  dashboardCache
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// DashboardService orchestrates composition of dashboard payloads. Every
// figure comes from the domain aggregation functions applied to the caller's
// scoped view of one snapshot.
type DashboardService struct {
	store  documentStore
	cache  dashboardCache
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if cfg.RecentGradesLimit <= 0 {
		cfg.RecentGradesLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		store:  params.Store,
		cache:  params.Cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		cfg:    cfg,
	}
}

// Student returns the calling student's dashboard and indicates cache utilisation.
func (s *DashboardService) Student(ctx context.Context, claims *models.JWTClaims) (*dto.StudentDashboardResponse, bool, error) {
	snap, viewer, err := s.viewer(ctx, claims, models.RoleStudent)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	tasks := domain.VisibleTasks(snap.Document, viewer)
	fees := domain.VisibleFees(snap.Document, viewer)
	ttl := s.ttlUntil(now, append(pendingDueDates(tasks, viewer.ID, now), feeDueDates(fees, now)...))

	var result dto.StudentDashboardResponse
	hit, err := s.remember(ctx, cacheKey(viewer, snap.Version, ""), ttl, &result, func() (interface{}, error) {
		pendingFees := 0
		for _, fee := range fees {
			if domain.EffectiveFeeStatus(fee, now) != models.FeeStatusPaid {
				pendingFees++
			}
		}
		return dto.StudentDashboardResponse{
			StudentID:      viewer.ID,
			Breakdown:      domain.Breakdown(tasks, viewer.ID, now),
			CompletionRate: domain.StudentRate(tasks, viewer.ID, now),
			Upcoming:       s.upcoming(tasks, viewer.ID, now),
			RecentGrades:   s.recentGrades(tasks, viewer.ID),
			Subjects:       domain.ActivityBySubject(tasks),
			Announcements:  len(domain.VisibleAnnouncements(snap.Document, viewer)),
			PendingFees:    pendingFees,
			Meta:           meta(snap, now),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

// Teacher returns the calling teacher's dashboard.
func (s *DashboardService) Teacher(ctx context.Context, claims *models.JWTClaims) (*dto.TeacherDashboardResponse, bool, error) {
	snap, viewer, err := s.viewer(ctx, claims, models.RoleTeacher)
	if err != nil {
		return nil, false, err
	}
	now := s.now()

	var result dto.TeacherDashboardResponse
	hit, err := s.remember(ctx, cacheKey(viewer, snap.Version, ""), s.cfg.CacheTTL, &result, func() (interface{}, error) {
		tasks := domain.VisibleTasks(snap.Document, viewer)
		students := domain.VisibleStudents(snap.Document, viewer)
		rollup := domain.RollupTeacher(viewer.ID, tasks)
		return dto.TeacherDashboardResponse{
			TeacherID:      viewer.ID,
			Rollup:         rollup,
			StudentCount:   len(students),
			SubmissionRate: domain.SubmissionRate(tasks, students),
			AwaitingGrade:  rollup.SubmissionCount - rollup.GradedCount,
			Tasks:          domain.ProgressOf(tasks, students),
			Subjects:       domain.ActivityBySubject(tasks),
			Meta:           meta(snap, now),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

// School returns a school dashboard. Administrators always get their own
// school; management picks one with schoolID.
func (s *DashboardService) School(ctx context.Context, claims *models.JWTClaims, schoolID string) (*dto.SchoolDashboardResponse, bool, error) {
	snap, viewer, err := s.viewer(ctx, claims, models.RoleSchoolAdmin, models.RoleManagement)
	if err != nil {
		return nil, false, err
	}
	doc := snap.Document
	if viewer.Role == models.RoleSchoolAdmin {
		schoolID = viewer.SchoolID
	} else if schoolID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "schoolId is required")
	}
	school, ok := doc.FindSchool(schoolID)
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}

	now := s.now()
	fees := filterFees(domain.VisibleFees(doc, viewer), schoolID)
	ttl := s.ttlUntil(now, feeDueDates(fees, now))

	var result dto.SchoolDashboardResponse
	hit, err := s.remember(ctx, cacheKey(viewer, snap.Version, schoolID), ttl, &result, func() (interface{}, error) {
		teachers, students, tasks := schoolSlice(doc, viewer, schoolID)
		teacherRollups := make([]domain.TeacherRollup, 0, len(teachers))
		for _, teacher := range teachers {
			teacherRollups = append(teacherRollups, domain.RollupTeacher(teacher.ID, tasks))
		}
		announcements := 0
		for _, a := range domain.VisibleAnnouncements(doc, viewer) {
			if a.SchoolID == schoolID {
				announcements++
			}
		}
		return dto.SchoolDashboardResponse{
			School:        school,
			Rollup:        domain.RollupSchool(schoolID, teachers, students, tasks),
			Teachers:      teacherRollups,
			Subjects:      domain.ActivityBySubject(tasks),
			Fees:          summarizeFees(fees, now),
			Announcements: announcements,
			Meta:          meta(snap, now),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

// Parent returns the dashboard of the calling parent's linked child.
func (s *DashboardService) Parent(ctx context.Context, claims *models.JWTClaims) (*dto.ParentDashboardResponse, bool, error) {
	snap, viewer, err := s.viewer(ctx, claims, models.RoleParent)
	if err != nil {
		return nil, false, err
	}
	child, ok := domain.LinkedChild(snap.Document, viewer)
	if !ok {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "no linked student")
	}

	now := s.now()
	tasks := domain.VisibleTasks(snap.Document, viewer)
	fees := domain.VisibleFees(snap.Document, viewer)
	ttl := s.ttlUntil(now, append(pendingDueDates(tasks, child.ID, now), feeDueDates(fees, now)...))

	var result dto.ParentDashboardResponse
	hit, err := s.remember(ctx, cacheKey(viewer, snap.Version, ""), ttl, &result, func() (interface{}, error) {
		views := make([]dto.TaskView, 0, len(tasks))
		for _, task := range tasks {
			status := domain.SubmissionStatus(task, child.ID, now)
			views = append(views, dto.TaskView{Task: task, Status: &status})
		}
		return dto.ParentDashboardResponse{
			Child:          child.Sanitized(),
			Breakdown:      domain.Breakdown(tasks, child.ID, now),
			CompletionRate: domain.StudentRate(tasks, child.ID, now),
			Tasks:          views,
			Teachers:       domain.VisibleTeachers(snap.Document, viewer),
			Fees:           summarizeFees(fees, now),
			Announcements:  len(domain.VisibleAnnouncements(snap.Document, viewer)),
			Meta:           meta(snap, now),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

// Management returns the network wide dashboard.
func (s *DashboardService) Management(ctx context.Context, claims *models.JWTClaims) (*dto.ManagementDashboardResponse, bool, error) {
	snap, viewer, err := s.viewer(ctx, claims, models.RoleManagement)
	if err != nil {
		return nil, false, err
	}
	now := s.now()

	var result dto.ManagementDashboardResponse
	hit, err := s.remember(ctx, cacheKey(viewer, snap.Version, ""), s.cfg.CacheTTL, &result, func() (interface{}, error) {
		doc := snap.Document
		schools := domain.VisibleSchools(doc, viewer)
		rollups := make([]domain.SchoolRollup, 0, len(schools))
		for _, school := range schools {
			teachers, students, tasks := schoolSlice(doc, viewer, school.ID)
			rollups = append(rollups, domain.RollupSchool(school.ID, teachers, students, tasks))
		}
		return dto.ManagementDashboardResponse{
			Network:  domain.RollupNetwork(rollups),
			Subjects: domain.ActivityBySubject(domain.VisibleTasks(doc, viewer)),
			Meta:     meta(snap, now),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, hit, nil
}

func (s *DashboardService) viewer(ctx context.Context, claims *models.JWTClaims, roles ...models.UserRole) (store.Snapshot, models.User, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return store.Snapshot{}, models.User{}, err
	}
	viewer, err := resolveViewer(snap.Document, claims)
	if err != nil {
		return store.Snapshot{}, models.User{}, err
	}
	if err := requireRole(viewer, roles...); err != nil {
		return store.Snapshot{}, models.User{}, err
	}
	return snap, viewer, nil
}

func (s *DashboardService) remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) (bool, error) {
	if s.cache == nil {
		value, err := load()
		if err != nil {
			return false, err
		}
		return false, assign(dest, value)
	}
	hit, err := s.cache.Remember(ctx, key, ttl, dest, load)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return hit, nil
}

// ttlUntil caps the cache lifetime at the next moment a derived status flips.
func (s *DashboardService) ttlUntil(now time.Time, deadlines []time.Time) time.Duration {
	ttl := s.cfg.CacheTTL
	for _, deadline := range deadlines {
		if until := deadline.Sub(now); until < ttl {
			ttl = until
		}
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

func (s *DashboardService) upcoming(tasks []models.Task, studentID string, now time.Time) []dto.TaskView {
	result := make([]dto.TaskView, 0, s.cfg.UpcomingLimit)
	for _, task := range tasks {
		status := domain.SubmissionStatus(task, studentID, now)
		if status != models.StatusPending {
			continue
		}
		result = append(result, dto.TaskView{Task: task, Status: &status})
		if len(result) == s.cfg.UpcomingLimit {
			break
		}
	}
	return result
}

func (s *DashboardService) recentGrades(tasks []models.Task, studentID string) []dto.GradedTask {
	type graded struct {
		task models.Task
		sub  models.Submission
	}
	var items []graded
	for _, task := range tasks {
		if sub, ok := task.SubmissionFor(studentID); ok && sub.Grade != nil && sub.GradedAt != nil {
			items = append(items, graded{task: task, sub: sub})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].sub.GradedAt.After(*items[j].sub.GradedAt)
	})
	if len(items) > s.cfg.RecentGradesLimit {
		items = items[:s.cfg.RecentGradesLimit]
	}
	result := make([]dto.GradedTask, 0, len(items))
	for _, item := range items {
		result = append(result, dto.GradedTask{
			TaskID:   item.task.ID,
			Title:    item.task.Title,
			Subject:  item.task.Subject,
			Grade:    *item.sub.Grade,
			Feedback: item.sub.Feedback,
			GradedAt: item.sub.GradedAt.Format(time.RFC3339),
		})
	}
	return result
}

func cacheKey(viewer models.User, version int64, qualifier string) string {
	if qualifier != "" {
		return fmt.Sprintf("dash:%s:%s:%s:v%d", viewer.Role, viewer.ID, qualifier, version)
	}
	return fmt.Sprintf("dash:%s:%s:v%d", viewer.Role, viewer.ID, version)
}

func meta(snap store.Snapshot, now time.Time) dto.DashboardMeta {
	return dto.DashboardMeta{Version: snap.Version, GeneratedAt: now.Format(time.RFC3339)}
}

// schoolSlice returns the school's roster and the tasks the viewer sees there.
func schoolSlice(doc models.Document, viewer models.User, schoolID string) ([]models.User, []models.User, []models.Task) {
	teachers := usersInSchool(domain.VisibleTeachers(doc, viewer), schoolID)
	students := usersInSchool(domain.VisibleStudents(doc, viewer), schoolID)
	tasks := make([]models.Task, 0)
	for _, task := range domain.VisibleTasks(doc, viewer) {
		if task.SchoolID == schoolID {
			tasks = append(tasks, task)
		}
	}
	return teachers, students, tasks
}

func usersInSchool(users []models.User, schoolID string) []models.User {
	result := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.SchoolID == schoolID {
			result = append(result, u)
		}
	}
	return result
}

func filterFees(fees []models.Fee, schoolID string) []models.Fee {
	result := make([]models.Fee, 0, len(fees))
	for _, fee := range fees {
		if fee.SchoolID == schoolID {
			result = append(result, fee)
		}
	}
	return result
}

func summarizeFees(fees []models.Fee, now time.Time) dto.FeeSummary {
	var summary dto.FeeSummary
	for _, fee := range fees {
		switch domain.EffectiveFeeStatus(fee, now) {
		case models.FeeStatusPaid:
			summary.Paid++
			summary.CollectedAmount += fee.Amount
		case models.FeeStatusOverdue:
			summary.Overdue++
			summary.OutstandingAmount += fee.Amount
		default:
			summary.Pending++
			summary.OutstandingAmount += fee.Amount
		}
	}
	return summary
}

func pendingDueDates(tasks []models.Task, studentID string, now time.Time) []time.Time {
	var result []time.Time
	for _, task := range tasks {
		if domain.SubmissionStatus(task, studentID, now) == models.StatusPending {
			result = append(result, task.DueDate)
		}
	}
	return result
}

func feeDueDates(fees []models.Fee, now time.Time) []time.Time {
	var result []time.Time
	for _, fee := range fees {
		if domain.EffectiveFeeStatus(fee, now) == models.FeeStatusPending {
			result = append(result, fee.DueDate)
		}
	}
	return result
}
