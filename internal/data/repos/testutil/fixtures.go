package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/examiner-backend/internal/domain"
)

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, key string, maxMarks float64) *types.Question {
	tb.Helper()
	q := &types.Question{
		ID:               uuid.New(),
		QuestionKey:      key,
		Subject:          "Physics",
		Topic:            "Newton's laws",
		QuestionText:     "State and explain Newton's first law.",
		IdealAnswer:      "An object remains at rest or in uniform motion unless acted on by a net external force. This property is inertia.",
		MaxMarks:         maxMarks,
		PassingThreshold: types.DefaultPassingThreshold,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

// SeedConcepts writes names as the question's concept set with marks split evenly.
func SeedConcepts(tb testing.TB, ctx context.Context, tx *gorm.DB, q *types.Question, names ...string) []*types.KeyConcept {
	tb.Helper()
	out := make([]*types.KeyConcept, 0, len(names))
	for i, name := range names {
		kw, _ := json.Marshal([]string{name})
		out = append(out, &types.KeyConcept{
			ID:               uuid.New(),
			QuestionID:       q.ID,
			Ordinal:          i,
			Name:             name,
			Description:      fmt.Sprintf("%s explained", name),
			Importance:       0.8,
			Keywords:         kw,
			MaxPoints:        q.MaxMarks / float64(len(names)),
			ExtractionMethod: "derived",
		})
	}
	if len(out) == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed concepts: %v", err)
	}
	return out
}

func SeedAnswer(tb testing.TB, ctx context.Context, tx *gorm.DB, questionID uuid.UUID, studentID, text string) *types.StudentAnswer {
	tb.Helper()
	a := &types.StudentAnswer{
		ID:         uuid.New(),
		QuestionID: questionID,
		StudentID:  studentID,
		AnswerText: text,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed answer: %v", err)
	}
	return a
}

