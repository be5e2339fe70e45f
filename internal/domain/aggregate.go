package domain

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

// Aggregation functions take collections that were already scoped by the
// caller. They never look anything up on their own.

// StatusBreakdown counts tasks per derived status for one student.
type StatusBreakdown struct {
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Submitted int `json:"submitted"`
	Graded    int `json:"graded"`
}

// Total returns the number of tasks counted.
func (b StatusBreakdown) Total() int {
	return b.Pending + b.Overdue + b.Submitted + b.Graded
}

// TurnedIn returns the submitted and graded tasks together.
func (b StatusBreakdown) TurnedIn() int {
	return b.Submitted + b.Graded
}

// TeacherRollup summarises the tasks authored by one teacher.
type TeacherRollup struct {
	TeacherID       string `json:"teacher_id"`
	TaskCount       int    `json:"task_count"`
	SubmissionCount int    `json:"submission_count"`
	GradedCount     int    `json:"graded_count"`
}

// SchoolRollup summarises one school.
type SchoolRollup struct {
	SchoolID        string `json:"school_id"`
	TeacherCount    int    `json:"teacher_count"`
	StudentCount    int    `json:"student_count"`
	TaskCount       int    `json:"task_count"`
	SubmissionCount int    `json:"submission_count"`
	GradedCount     int    `json:"graded_count"`
	SubmissionRate  int    `json:"submission_rate"`
}

// NetworkRollup summarises several schools.
type NetworkRollup struct {
	SchoolCount     int            `json:"school_count"`
	TeacherCount    int            `json:"teacher_count"`
	StudentCount    int            `json:"student_count"`
	TaskCount       int            `json:"task_count"`
	SubmissionCount int            `json:"submission_count"`
	SubmissionRate  int            `json:"submission_rate"`
	Schools         []SchoolRollup `json:"schools"`
}

// SubjectActivity is the per subject task and submission volume.
type SubjectActivity struct {
	Subject     string `json:"subject"`
	Tasks       int    `json:"tasks"`
	Submissions int    `json:"submissions"`
}

// TaskProgress reports how far a class got with one task.
type TaskProgress struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Submissions int    `json:"submissions"`
	Graded      int    `json:"graded"`
	Expected    int    `json:"expected"`
	Rate        int    `json:"rate"`
}

// RateFromSlots converts a count over a number of slots into a whole
// percentage in [0, 100]. Zero slots yield 0.
func RateFromSlots(count, slots int) int {
	if count <= 0 || slots <= 0 {
		return 0
	}
	rate := int(math.Round(float64(count) / float64(slots) * 100))
	if rate > 100 {
		return 100
	}
	return rate
}

// RateFromCounts is the submission rate of submissions spread over tasks × students.
func RateFromCounts(submissions, tasks, students int) int {
	return RateFromSlots(submissions, tasks*students)
}

// CountSubmissions returns the number of submissions embedded in tasks.
func CountSubmissions(tasks []models.Task) int {
	total := 0
	for _, t := range tasks {
		total += len(t.Submissions)
	}
	return total
}

// SubmissionRate is totalSubmissions(tasks) / (|tasks| × |students|) as a
// rounded percentage.
func SubmissionRate(tasks []models.Task, students []models.User) int {
	return RateFromCounts(CountSubmissions(tasks), len(tasks), len(students))
}

// Breakdown derives the status of every task for studentID.
func Breakdown(tasks []models.Task, studentID string, now time.Time) StatusBreakdown {
	var b StatusBreakdown
	for _, t := range tasks {
		switch SubmissionStatus(t, studentID, now) {
		case models.StatusPending:
			b.Pending++
		case models.StatusOverdue:
			b.Overdue++
		case models.StatusSubmitted:
			b.Submitted++
		case models.StatusGraded:
			b.Graded++
		}
	}
	return b
}

// StudentRate is the share of the student's visible tasks that were turned in.
func StudentRate(tasks []models.Task, studentID string, now time.Time) int {
	b := Breakdown(tasks, studentID, now)
	return RateFromSlots(b.TurnedIn(), b.Total())
}

// RollupTeacher counts the tasks, submissions and graded submissions of the
// tasks authored by teacherID.
func RollupTeacher(teacherID string, tasks []models.Task) TeacherRollup {
	r := TeacherRollup{TeacherID: teacherID}
	for _, t := range tasks {
		if t.TeacherID != teacherID {
			continue
		}
		r.TaskCount++
		r.SubmissionCount += len(t.Submissions)
		for _, s := range t.Submissions {
			if s.Grade != nil {
				r.GradedCount++
			}
		}
	}
	return r
}

// RollupSchool builds the school summary out of per teacher rollups so that
// the school figures always equal the sum of what teachers see.
func RollupSchool(schoolID string, teachers, students []models.User, tasks []models.Task) SchoolRollup {
	r := SchoolRollup{
		SchoolID:     schoolID,
		TeacherCount: len(teachers),
		StudentCount: len(students),
	}
	authors := make(map[string]struct{}, len(teachers))
	for _, teacher := range teachers {
		authors[teacher.ID] = struct{}{}
	}
	// tasks whose author left the roster still count for the school
	for _, t := range tasks {
		authors[t.TeacherID] = struct{}{}
	}
	ids := make([]string, 0, len(authors))
	for id := range authors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		tr := RollupTeacher(id, tasks)
		r.TaskCount += tr.TaskCount
		r.SubmissionCount += tr.SubmissionCount
		r.GradedCount += tr.GradedCount
	}
	r.SubmissionRate = RateFromCounts(r.SubmissionCount, r.TaskCount, r.StudentCount)
	return r
}

// RollupNetwork combines school rollups. The network rate weighs each school
// by its own tasks × students, matching the per school definition.
func RollupNetwork(schools []SchoolRollup) NetworkRollup {
	n := NetworkRollup{SchoolCount: len(schools), Schools: make([]SchoolRollup, 0, len(schools))}
	slots := 0
	for _, s := range schools {
		n.TeacherCount += s.TeacherCount
		n.StudentCount += s.StudentCount
		n.TaskCount += s.TaskCount
		n.SubmissionCount += s.SubmissionCount
		slots += s.TaskCount * s.StudentCount
		n.Schools = append(n.Schools, s)
	}
	n.SubmissionRate = RateFromSlots(n.SubmissionCount, slots)
	return n
}

// ActivityBySubject groups tasks by subject, sorted by subject name.
func ActivityBySubject(tasks []models.Task) []SubjectActivity {
	index := map[string]int{}
	result := make([]SubjectActivity, 0)
	for _, t := range tasks {
		i, ok := index[t.Subject]
		if !ok {
			i = len(result)
			index[t.Subject] = i
			result = append(result, SubjectActivity{Subject: t.Subject})
		}
		result[i].Tasks++
		result[i].Submissions += len(t.Submissions)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Subject < result[j].Subject })
	return result
}

// ProgressOf reports submissions of each task against the students expected
// to submit it, i.e. the students of the task's school and class level.
func ProgressOf(tasks []models.Task, students []models.User) []TaskProgress {
	result := make([]TaskProgress, 0, len(tasks))
	for _, t := range tasks {
		expected := 0
		for _, s := range students {
			if s.SchoolID == t.SchoolID && s.ClassLevel == t.ClassLevel {
				expected++
			}
		}
		graded := 0
		for _, s := range t.Submissions {
			if s.Grade != nil {
				graded++
			}
		}
		result = append(result, TaskProgress{
			TaskID:      t.ID,
			Title:       t.Title,
			Subject:     t.Subject,
			Submissions: len(t.Submissions),
			Graded:      graded,
			Expected:    expected,
			Rate:        RateFromSlots(len(t.Submissions), expected),
		})
	}
	return result
}
