package models

import "time"

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

// QuizAttempt is the retained attempt of one student.
type QuizAttempt struct {
	StudentID   string         `json:"student_id"`
	Answers     map[string]int `json:"answers"`
	Score       int            `json:"score"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Quiz is a teacher-authored multiple-choice assessment.
type Quiz struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Subject    string         `json:"subject"`
	ClassLevel int            `json:"class_level"`
	TeacherID  string         `json:"teacher_id"`
	SchoolID   string         `json:"school_id"`
	DueDate    time.Time      `json:"due_date"`
	CreatedAt  time.Time      `json:"created_at"`
	Questions  []QuizQuestion `json:"questions"`
	Attempts   []QuizAttempt  `json:"attempts"`
}

// AttemptFor returns the attempt of the given student, if any.
func (q Quiz) AttemptFor(studentID string) (QuizAttempt, bool) {
	for _, attempt := range q.Attempts {
		if attempt.StudentID == studentID {
			return attempt, true
		}
	}
	return QuizAttempt{}, false
}

// WithoutAnswers hides the answer key and other students' attempts.
func (q Quiz) WithoutAnswers(studentID string) Quiz {
	clone := q.Clone()
	for i := range clone.Questions {
		clone.Questions[i].CorrectOptionIndex = -1
	}
	attempts := make([]QuizAttempt, 0, 1)
	for _, attempt := range clone.Attempts {
		if attempt.StudentID == studentID {
			attempts = append(attempts, attempt)
		}
	}
	clone.Attempts = attempts
	return clone
}

// Clone returns a deep copy of the quiz.
func (q Quiz) Clone() Quiz {
	clone := q
	clone.Questions = make([]QuizQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		copied := question
		copied.Options = append([]string(nil), question.Options...)
		clone.Questions = append(clone.Questions, copied)
	}
	clone.Attempts = make([]QuizAttempt, 0, len(q.Attempts))
	for _, attempt := range q.Attempts {
		copied := attempt
		copied.Answers = make(map[string]int, len(attempt.Answers))
		for k, v := range attempt.Answers {
			copied.Answers[k] = v
		}
		clone.Attempts = append(clone.Attempts, copied)
	}
	return clone
}
