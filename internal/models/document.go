package models

// Document is the whole normalized dataset. It is persisted and replaced as a
// single unit; every mutation produces a new Document.
type Document struct {
	Schools       []School        `json:"schools"`
	Users         []User          `json:"users"`
	Tasks         []Task          `json:"tasks"`
	Materials     []StudyMaterial `json:"materials"`
	Quizzes       []Quiz          `json:"quizzes"`
	Announcements []Announcement  `json:"announcements"`
	Fees          []Fee           `json:"fees"`
}

// NewDocument returns an empty document with non-nil collections.
func NewDocument() Document {
	return Document{
		Schools:       []School{},
		Users:         []User{},
		Tasks:         []Task{},
		Materials:     []StudyMaterial{},
		Quizzes:       []Quiz{},
		Announcements: []Announcement{},
		Fees:          []Fee{},
	}
}

// Clone returns a deep copy so callers may mutate it freely.
func (d Document) Clone() Document {
	clone := Document{
		Schools:       append(make([]School, 0, len(d.Schools)), d.Schools...),
		Users:         make([]User, 0, len(d.Users)),
		Tasks:         make([]Task, 0, len(d.Tasks)),
		Materials:     append(make([]StudyMaterial, 0, len(d.Materials)), d.Materials...),
		Quizzes:       make([]Quiz, 0, len(d.Quizzes)),
		Announcements: make([]Announcement, 0, len(d.Announcements)),
		Fees:          make([]Fee, 0, len(d.Fees)),
	}
	for _, u := range d.Users {
		clone.Users = append(clone.Users, u.Clone())
	}
	for _, t := range d.Tasks {
		clone.Tasks = append(clone.Tasks, t.Clone())
	}
	for _, q := range d.Quizzes {
		clone.Quizzes = append(clone.Quizzes, q.Clone())
	}
	for _, a := range d.Announcements {
		clone.Announcements = append(clone.Announcements, a.Clone())
	}
	for _, f := range d.Fees {
		clone.Fees = append(clone.Fees, f.Clone())
	}
	return clone
}

// FindSchool returns the school with the given id.
func (d Document) FindSchool(id string) (School, bool) {
	for _, s := range d.Schools {
		if s.ID == id {
			return s, true
		}
	}
	return School{}, false
}

// FindUser returns the user with the given id.
func (d Document) FindUser(id string) (User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// TaskIndex returns the position of the task or -1.
func (d Document) TaskIndex(id string) int {
	for i, t := range d.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindTask returns the task with the given id.
func (d Document) FindTask(id string) (Task, bool) {
	if idx := d.TaskIndex(id); idx >= 0 {
		return d.Tasks[idx], true
	}
	return Task{}, false
}

// QuizIndex returns the position of the quiz or -1.
func (d Document) QuizIndex(id string) int {
	for i, q := range d.Quizzes {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// FeeIndex returns the position of the fee or -1.
func (d Document) FeeIndex(id string) int {
	for i, f := range d.Fees {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// UsersByRole returns the users with the role, optionally restricted to a school.
func (d Document) UsersByRole(role UserRole, schoolID string) []User {
	var result []User
	for _, u := range d.Users {
		if u.Role != role {
			continue
		}
		if schoolID != "" && u.SchoolID != schoolID {
			continue
		}
		result = append(result, u)
	}
	return result
}
