package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutask-api/internal/models"
	"github.com/noah-isme/edutask-api/internal/repository"
	"github.com/noah-isme/edutask-api/internal/store"
)

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func strPtr(v string) *string { return &v }

func seedDocument() models.Document {
	doc := models.NewDocument()
	doc.Schools = append(doc.Schools,
		models.School{ID: "sch-1", Name: "Harapan", City: "Bandung", RegistrationCode: "ABC123"},
		models.School{ID: "sch-2", Name: "Pelita", City: "Bogor", RegistrationCode: "XYZ789"},
	)
	doc.Users = append(doc.Users,
		models.User{ID: "adm-1", Name: "Admin", Email: "admin@harapan.sch.id", PasswordHash: "x", Role: models.RoleSchoolAdmin, SchoolID: "sch-1"},
		models.User{ID: "tch-1", Name: "Bu Sari", Email: "sari@harapan.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", Subjects: []string{"Math"}, ClassesAssigned: []int{8}},
		models.User{ID: "tch-2", Name: "Pak Budi", Email: "budi@harapan.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", Subjects: []string{"Physics"}, ClassesAssigned: []int{9}},
		models.User{ID: "stu-1", Name: "Ani", Email: "ani@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 8, RollNumber: "08-01"},
		models.User{ID: "stu-2", Name: "Bayu", Email: "bayu@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 8, RollNumber: "08-02"},
		models.User{ID: "stu-3", Name: "Citra", Email: "citra@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 9},
		models.User{ID: "par-1", Name: "Ibu Ani", Email: "ibu.ani@mail.id", PasswordHash: "x", Role: models.RoleParent, SchoolID: "sch-1", ChildID: "stu-1"},
		models.User{ID: "tch-9", Name: "Pak Joko", Email: "joko@pelita.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-2", ClassesAssigned: []int{8}},
		models.User{ID: "stu-9", Name: "Dewi", Email: "dewi@pelita.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-2", ClassLevel: 8},
		models.User{ID: "mgt-1", Name: "Network", Email: "ops@network.id", PasswordHash: "x", Role: models.RoleManagement},
	)
	doc.Tasks = append(doc.Tasks,
		models.Task{ID: "task-math", Title: "Fractions", Description: "p. 12", Subject: "Math", ClassLevel: 8, TeacherID: "tch-1", SchoolID: "sch-1", Type: models.TaskTypeHomework, Priority: models.TaskPriorityHigh, DueDate: fixedNow.Add(72 * time.Hour), Submissions: []models.Submission{}},
		models.Task{ID: "task-phys", Title: "Forces", Description: "lab", Subject: "Physics", ClassLevel: 9, TeacherID: "tch-2", SchoolID: "sch-1", Type: models.TaskTypeLabReport, Priority: models.TaskPriorityMedium, DueDate: fixedNow.Add(-48 * time.Hour), Submissions: []models.Submission{}},
		models.Task{ID: "task-other", Title: "Essay", Description: "300 words", Subject: "English", ClassLevel: 8, TeacherID: "tch-9", SchoolID: "sch-2", Type: models.TaskTypeOther, Priority: models.TaskPriorityLow, DueDate: fixedNow.Add(24 * time.Hour), Submissions: []models.Submission{}},
	)
	doc.Materials = append(doc.Materials,
		models.StudyMaterial{ID: "mat-8", Title: "Fractions notes", Subject: "Math", ClassLevel: 8, TeacherID: "tch-1", SchoolID: "sch-1", Type: models.MaterialTypeNotes, Content: "..."},
		models.StudyMaterial{ID: "mat-9", Title: "Newton", Subject: "Physics", ClassLevel: 9, TeacherID: "tch-2", SchoolID: "sch-1", Type: models.MaterialTypeSummary, Content: "..."},
	)
	return doc
}

type invalidatorStub struct {
	mu       sync.Mutex
	patterns []string
}

func (s *invalidatorStub) Invalidate(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	return nil
}

func (s *invalidatorStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}

type commandRecorderStub struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (s *commandRecorderStub) RecordCommand(command, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = map[string][]string{}
	}
	s.outcomes[command] = append(s.outcomes[command], outcome)
}

type testEnv struct {
	store   *store.Store
	cache   *invalidatorStub
	metrics *commandRecorderStub
}

func (e testEnv) deps() Deps {
	return Deps{Store: e.store, Cache: e.cache, Metrics: e.metrics}
}

func (e testEnv) document(t *testing.T) models.Document {
	t.Helper()
	snap, err := e.store.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.Document
}

func newTestEnv(t *testing.T, doc models.Document) testEnv {
	t.Helper()
	st := store.New(repository.NewMemoryDocumentRepository(), store.Options{})
	_, err := st.Replace(context.Background(), doc)
	require.NoError(t, err)
	return testEnv{store: st, cache: &invalidatorStub{}, metrics: &commandRecorderStub{}}
}

func claimsFor(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID}
}
