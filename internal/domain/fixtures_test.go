package domain

import (
	"fmt"
	"time"

	"github.com/noah-isme/edutask-api/internal/models"
)

var baseTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func ptrString(v string) *string { return &v }

// seededDocument builds two schools. sch-1 has a class 8 teacher, a class 9
// teacher, students in both classes, and a parent linked to stu-1.
func seededDocument() models.Document {
	doc := models.NewDocument()
	doc.Schools = append(doc.Schools,
		models.School{ID: "sch-1", Name: "Harapan", RegistrationCode: "ABC123"},
		models.School{ID: "sch-2", Name: "Pelita", RegistrationCode: "XYZ789"},
	)
	doc.Users = append(doc.Users,
		models.User{ID: "adm-1", Name: "Admin", Email: "admin@harapan.sch.id", PasswordHash: "x", Role: models.RoleSchoolAdmin, SchoolID: "sch-1"},
		models.User{ID: "tch-1", Name: "Bu Sari", Email: "sari@harapan.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", Subjects: []string{"Math"}, ClassesAssigned: []int{8}},
		models.User{ID: "tch-2", Name: "Pak Budi", Email: "budi@harapan.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", Subjects: []string{"Physics"}, ClassesAssigned: []int{9}},
		models.User{ID: "stu-1", Name: "Ani", Email: "ani@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 8},
		models.User{ID: "stu-2", Name: "Bayu", Email: "bayu@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 8},
		models.User{ID: "stu-3", Name: "Citra", Email: "citra@harapan.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 9},
		models.User{ID: "par-1", Name: "Ibu Ani", Email: "ibu.ani@mail.id", PasswordHash: "x", Role: models.RoleParent, SchoolID: "sch-1", ChildID: "stu-1"},
		models.User{ID: "tch-9", Name: "Pak Joko", Email: "joko@pelita.sch.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-2", ClassesAssigned: []int{8}},
		models.User{ID: "stu-9", Name: "Dewi", Email: "dewi@pelita.sch.id", PasswordHash: "x", Role: models.RoleStudent, SchoolID: "sch-2", ClassLevel: 8},
		models.User{ID: "mgt-1", Name: "Network", Email: "ops@network.id", PasswordHash: "x", Role: models.RoleManagement},
	)
	doc.Tasks = append(doc.Tasks,
		models.Task{ID: "task-math", Title: "Fractions", Description: "p. 12", Subject: "Math", ClassLevel: 8, TeacherID: "tch-1", SchoolID: "sch-1", Type: models.TaskTypeHomework, Priority: models.TaskPriorityHigh, DueDate: baseTime.Add(72 * time.Hour), Submissions: []models.Submission{}},
		models.Task{ID: "task-phys", Title: "Forces", Description: "lab", Subject: "Physics", ClassLevel: 9, TeacherID: "tch-2", SchoolID: "sch-1", Type: models.TaskTypeLabReport, Priority: models.TaskPriorityMedium, DueDate: baseTime.Add(48 * time.Hour), Submissions: []models.Submission{}},
		models.Task{ID: "task-other", Title: "Essay", Description: "300 words", Subject: "English", ClassLevel: 8, TeacherID: "tch-9", SchoolID: "sch-2", Type: models.TaskTypeOther, Priority: models.TaskPriorityLow, DueDate: baseTime.Add(24 * time.Hour), Submissions: []models.Submission{}},
	)
	doc.Materials = append(doc.Materials,
		models.StudyMaterial{ID: "mat-8", Title: "Fractions notes", Subject: "Math", ClassLevel: 8, TeacherID: "tch-1", SchoolID: "sch-1", Type: models.MaterialTypeNotes, Content: "..."},
		models.StudyMaterial{ID: "mat-9", Title: "Newton", Subject: "Physics", ClassLevel: 9, TeacherID: "tch-2", SchoolID: "sch-1", Type: models.MaterialTypeSummary, Content: "..."},
		models.StudyMaterial{ID: "mat-x", Title: "Essay tips", Subject: "English", ClassLevel: 8, TeacherID: "tch-9", SchoolID: "sch-2", Type: models.MaterialTypeReference, Content: "..."},
	)
	return doc
}

// networkScenario builds one school with 2 teachers, 10 students, 5 tasks and
// 17 submissions in total.
func networkScenario() (models.Document, []models.User, []models.User) {
	doc := models.NewDocument()
	doc.Schools = append(doc.Schools, models.School{ID: "sch-1", Name: "Harapan", RegistrationCode: "ABC123"})
	teachers := []models.User{
		{ID: "tch-1", Name: "T1", Email: "t1@x.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", ClassesAssigned: []int{8}},
		{ID: "tch-2", Name: "T2", Email: "t2@x.id", PasswordHash: "x", Role: models.RoleTeacher, SchoolID: "sch-1", ClassesAssigned: []int{8}},
	}
	students := make([]models.User, 0, 10)
	for i := 0; i < 10; i++ {
		students = append(students, models.User{
			ID: fmt.Sprintf("stu-%02d", i), Name: "S", Email: fmt.Sprintf("s%d@x.id", i), PasswordHash: "x",
			Role: models.RoleStudent, SchoolID: "sch-1", ClassLevel: 8,
		})
	}
	doc.Users = append(doc.Users, teachers...)
	doc.Users = append(doc.Users, students...)

	perTask := []int{5, 4, 3, 3, 2}
	for i, count := range perTask {
		task := models.Task{
			ID: fmt.Sprintf("task-%d", i), Title: "T", Description: "D", Subject: []string{"Math", "Physics"}[i%2],
			ClassLevel: 8, TeacherID: teachers[i%2].ID, SchoolID: "sch-1", DueDate: baseTime, Submissions: []models.Submission{},
		}
		for s := 0; s < count; s++ {
			sub := models.Submission{StudentID: students[s].ID, SubmittedAt: baseTime}
			if s == 0 {
				sub.Grade = ptrString("A")
				gradedAt := baseTime
				sub.GradedAt = &gradedAt
			}
			task.Submissions = append(task.Submissions, sub)
		}
		doc.Tasks = append(doc.Tasks, task)
	}
	return doc, teachers, students
}
