package grading

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ExtractionMethodDerived = "derived"

// KeyConcept is one scoring unit derived from a question's reference answer.
// A question owns exactly one ordered set; (question_id, ordinal) is unique.
type KeyConcept struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID       uuid.UUID      `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_key_concept_question_ordinal,priority:1" json:"question_id"`
	Ordinal          int            `gorm:"column:ordinal;not null;uniqueIndex:idx_key_concept_question_ordinal,priority:2" json:"ordinal"`
	Name             string         `gorm:"column:name;not null" json:"concept_name"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	Importance       float64        `gorm:"column:importance;type:double precision;not null" json:"importance_score"`
	Keywords         datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords"` // []string
	MaxPoints        float64        `gorm:"column:max_points;type:double precision;not null" json:"max_points"`
	ExtractionMethod string         `gorm:"column:extraction_method;not null;default:'derived'" json:"extraction_method"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
}

func (KeyConcept) TableName() string { return "key_concept" }

func (c *KeyConcept) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// KeywordList decodes Keywords, returning nil when the column is empty or malformed.
func (c *KeyConcept) KeywordList() []string {
	if c == nil || len(c.Keywords) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(c.Keywords, &out); err != nil {
		return nil
	}
	return out
}
