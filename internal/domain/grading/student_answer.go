package grading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentAnswer is one student's submission for one question.
type StudentAnswer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID  uuid.UUID `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_student_answer_question_student,priority:1" json:"question_id"`
	StudentID   string    `gorm:"column:student_id;not null;uniqueIndex:idx_student_answer_question_student,priority:2;index" json:"student_id"`
	AnswerText  string    `gorm:"column:answer_text;type:text;not null" json:"answer_text"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submitted_at"`
	WordCount   *int      `gorm:"column:word_count" json:"word_count,omitempty"`
	Language    string    `gorm:"column:language;not null;default:'en'" json:"language"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (StudentAnswer) TableName() string { return "student_answer" }

func (a *StudentAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	if a.Language == "" {
		a.Language = "en"
	}
	return nil
}
