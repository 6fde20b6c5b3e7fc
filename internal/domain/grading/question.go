package grading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPassingThreshold is the pass mark in percent when a question does not set one.
const DefaultPassingThreshold = 60.0

// Question holds the reference material a submission is graded against.
type Question struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// External identifier supplied by the caller, e.g. "PHY-101-Q3".
	QuestionKey      string    `gorm:"column:question_key;not null;uniqueIndex:idx_question_key" json:"question_id"`
	Subject          string    `gorm:"column:subject;not null;default:''" json:"subject"`
	Topic            string    `gorm:"column:topic;not null;default:''" json:"topic"`
	QuestionText     string    `gorm:"column:question_text;type:text;not null" json:"question_text"`
	IdealAnswer      string    `gorm:"column:ideal_answer;type:text;not null" json:"ideal_answer"`
	MaxMarks         float64   `gorm:"column:max_marks;type:double precision;not null" json:"max_marks"`
	PassingThreshold float64   `gorm:"column:passing_threshold;type:double precision;not null;default:60" json:"passing_threshold"`
	DifficultyLevel  string    `gorm:"column:difficulty_level;not null;default:''" json:"difficulty_level,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.PassingThreshold <= 0 {
		q.PassingThreshold = DefaultPassingThreshold
	}
	return nil
}

// RubricCriterion is an instructor-authored scoring criterion. When a question
// has none, criteria are derived from its key concepts.
type RubricCriterion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID  uuid.UUID `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_rubric_criterion_question_ordinal,priority:1" json:"question_id"`
	Ordinal     int       `gorm:"column:ordinal;not null;uniqueIndex:idx_rubric_criterion_question_ordinal,priority:2" json:"ordinal"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	MaxPoints   float64   `gorm:"column:max_points;type:double precision;not null" json:"max_points"`
	Weight      float64   `gorm:"column:weight;type:double precision;not null;default:1" json:"weight"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (RubricCriterion) TableName() string { return "rubric_criterion" }

func (c *RubricCriterion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
