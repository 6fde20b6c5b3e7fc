package grading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AuditConceptsExtracted = "concepts_extracted"
	AuditAnswerGraded      = "answer_graded"
	AuditWorkflowFailed    = "workflow_failed"
	AuditQuestionCreated   = "question_created"
	AuditAnswerSubmitted   = "answer_submitted"
)

type AuditLog struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventType        string         `gorm:"column:event_type;not null;index" json:"event_type"`
	EntityType       string         `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID         string         `gorm:"column:entity_id;index" json:"entity_id"`
	RequestID        string         `gorm:"column:request_id" json:"request_id,omitempty"`
	EventData        datatypes.JSON `gorm:"column:event_data;type:jsonb" json:"event_data,omitempty"`
	ResultStatus     string         `gorm:"column:result_status;not null" json:"result_status"`
	ErrorCode        string         `gorm:"column:error_code" json:"error_code,omitempty"`
	ErrorMessage     string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	ProcessingTimeMs int64          `gorm:"column:processing_time_ms" json:"processing_time_ms"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
