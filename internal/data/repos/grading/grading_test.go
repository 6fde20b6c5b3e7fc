package grading

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/examiner-backend/internal/data/repos/testutil"
	types "github.com/yungbote/examiner-backend/internal/domain"
)

func TestQuestionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewQuestionRepo(db, testutil.Logger(t))

	key := "PHY-" + uuid.NewString()
	q := &types.Question{QuestionKey: key, QuestionText: "q", IdealAnswer: "a", MaxMarks: 10}
	if err := repo.Create(ctx, tx, q); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.ID == uuid.Nil || q.PassingThreshold != types.DefaultPassingThreshold {
		t.Fatalf("defaults not applied: id=%s threshold=%v", q.ID, q.PassingThreshold)
	}
	if got, err := repo.GetByKey(ctx, tx, key); err != nil || got == nil || got.ID != q.ID {
		t.Fatalf("GetByKey: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByKey(ctx, tx, "missing-"+key); err != nil || got != nil {
		t.Fatalf("GetByKey(missing): got=%v err=%v", got, err)
	}
	if err := repo.UpdateMaxMarks(ctx, tx, q.ID, 20); err != nil {
		t.Fatalf("UpdateMaxMarks: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, q.ID); err != nil || got == nil || got.MaxMarks != 20 {
		t.Fatalf("GetByID after update: got=%v err=%v", got, err)
	}
	dup := &types.Question{QuestionKey: key, QuestionText: "q", IdealAnswer: "a", MaxMarks: 10}
	if err := repo.Create(ctx, tx, dup); err == nil {
		t.Fatalf("duplicate question key accepted")
	}
}

func TestKeyConceptRepoInsertIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewKeyConceptRepo(db, testutil.Logger(t))

	q := testutil.SeedQuestion(t, ctx, tx, "K-"+uuid.NewString(), 20)
	first := []*types.KeyConcept{
		{QuestionID: q.ID, Ordinal: 0, Name: "Inertia", Importance: 1, MaxPoints: 10},
		{QuestionID: q.ID, Ordinal: 1, Name: "Net force", Importance: 0.8, MaxPoints: 10},
	}
	n, err := repo.InsertIfAbsent(ctx, tx, first)
	if err != nil || n != 2 {
		t.Fatalf("InsertIfAbsent(first): n=%d err=%v", n, err)
	}

	second := []*types.KeyConcept{
		{QuestionID: q.ID, Ordinal: 0, Name: "Other", Importance: 1, MaxPoints: 5},
		{QuestionID: q.ID, Ordinal: 1, Name: "Other 2", Importance: 1, MaxPoints: 5},
	}
	n, err = repo.InsertIfAbsent(ctx, tx, second)
	if err != nil || n != 0 {
		t.Fatalf("InsertIfAbsent(second): n=%d err=%v", n, err)
	}

	rows, err := repo.ListByQuestion(ctx, tx, q.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByQuestion: len=%d err=%v", len(rows), err)
	}
	if rows[0].Name != "Inertia" || rows[1].Name != "Net force" {
		t.Fatalf("winner set replaced: %s, %s", rows[0].Name, rows[1].Name)
	}
	if c, err := repo.CountByQuestion(ctx, tx, q.ID); err != nil || c != 2 {
		t.Fatalf("CountByQuestion: c=%d err=%v", c, err)
	}
}

func TestStudentAnswerRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewStudentAnswerRepo(db, testutil.Logger(t))

	q := testutil.SeedQuestion(t, ctx, tx, "A-"+uuid.NewString(), 10)
	student := "s-" + uuid.NewString()
	a := &types.StudentAnswer{QuestionID: q.ID, StudentID: student, AnswerText: "objects keep moving"}
	if err := repo.Create(ctx, tx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Language != "en" || a.SubmittedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", a)
	}

	got, err := repo.GetByQuestionAndStudent(ctx, tx, q.ID, student)
	if err != nil || got == nil || got.WordCount != nil {
		t.Fatalf("GetByQuestionAndStudent: got=%+v err=%v", got, err)
	}
	if err := repo.SetWordCount(ctx, tx, a.ID, 3); err != nil {
		t.Fatalf("SetWordCount: %v", err)
	}
	got, _ = repo.GetByQuestionAndStudent(ctx, tx, q.ID, student)
	if got.WordCount == nil || *got.WordCount != 3 {
		t.Fatalf("word count not persisted: %v", got.WordCount)
	}
	if rows, err := repo.ListByStudent(ctx, tx, student); err != nil || len(rows) != 1 {
		t.Fatalf("ListByStudent: len=%d err=%v", len(rows), err)
	}
	if got, err := repo.GetByQuestionAndStudent(ctx, tx, q.ID, "nobody"); err != nil || got != nil {
		t.Fatalf("missing answer: got=%v err=%v", got, err)
	}
	if err := repo.Create(ctx, tx, &types.StudentAnswer{QuestionID: q.ID, StudentID: student, AnswerText: "again"}); err == nil {
		t.Fatalf("second answer for the same pair accepted")
	}
}

func TestGradingResultRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	results := NewGradingResultRepo(db, testutil.Logger(t))
	evals := NewConceptEvaluationRepo(db, testutil.Logger(t))

	q := testutil.SeedQuestion(t, ctx, tx, "R-"+uuid.NewString(), 20)
	concepts := testutil.SeedConcepts(t, ctx, tx, q, "Inertia", "Net force")
	a := testutil.SeedAnswer(t, ctx, tx, q.ID, "s-"+uuid.NewString(), "objects at rest stay at rest")

	row := &types.GradingResult{
		StudentAnswerID:  a.ID,
		QuestionID:       q.ID,
		StudentID:        a.StudentID,
		TotalScore:       10,
		MaxPossibleScore: 20,
		Percentage:       50,
		Strategy:         types.StrategyChainOfThought,
	}
	ok, err := results.InsertIfAbsent(ctx, tx, row)
	if err != nil || !ok {
		t.Fatalf("InsertIfAbsent(first): ok=%v err=%v", ok, err)
	}
	ok, err = results.InsertIfAbsent(ctx, tx, &types.GradingResult{
		StudentAnswerID: a.ID, QuestionID: q.ID, StudentID: a.StudentID, Strategy: types.StrategyStepByStep,
	})
	if err != nil || ok {
		t.Fatalf("InsertIfAbsent(second): ok=%v err=%v", ok, err)
	}

	// Insert out of order to check ordinal ordering on read.
	_, err = evals.Create(ctx, tx, []*types.ConceptEvaluation{
		{GradingResultID: row.ID, KeyConceptID: concepts[1].ID, Ordinal: 1, ConceptName: "Net force", PointsPossible: 10},
		{GradingResultID: row.ID, KeyConceptID: concepts[0].ID, Ordinal: 0, ConceptName: "Inertia", Present: true, AccuracyScore: 1, PointsAwarded: 10, PointsPossible: 10},
	})
	if err != nil {
		t.Fatalf("evals.Create: %v", err)
	}

	got, err := results.GetByAnswerID(ctx, tx, a.ID)
	if err != nil || got == nil || got.ID != row.ID || got.Strategy != types.StrategyChainOfThought {
		t.Fatalf("GetByAnswerID: got=%+v err=%v", got, err)
	}
	rows, err := evals.ListByResultIDs(ctx, tx, []uuid.UUID{row.ID})
	if err != nil || len(rows) != 2 || rows[0].ConceptName != "Inertia" {
		t.Fatalf("ListByResultIDs: rows=%v err=%v", rows, err)
	}
	if list, err := results.ListByStudent(ctx, tx, a.StudentID); err != nil || len(list) != 1 {
		t.Fatalf("ListByStudent: len=%d err=%v", len(list), err)
	}
}

func TestAuditLogRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAuditLogRepo(db, testutil.Logger(t))

	id := uuid.NewString()
	if err := repo.Create(ctx, tx, &types.AuditLog{EventType: types.AuditConceptsExtracted, EntityType: "question", EntityID: id, ResultStatus: "success"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rows, err := repo.ListByEntity(ctx, tx, "question", id)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByEntity: len=%d err=%v", len(rows), err)
	}
}

func TestStudentAnswerRepoListAndStats(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	repo := NewStudentAnswerRepo(db, testutil.Logger(t))

	empty, err := repo.Stats(ctx, nil)
	if err != nil || empty.TotalAnswers != 0 || empty.AverageWordCount != 0 {
		t.Fatalf("Stats(empty): %+v err=%v", empty, err)
	}

	q1 := testutil.SeedQuestion(t, ctx, db, "L-1", 10)
	q2 := testutil.SeedQuestion(t, ctx, db, "L-2", 10)
	a := testutil.SeedAnswer(t, ctx, db, q1.ID, "s-1", "one two three")
	b := testutil.SeedAnswer(t, ctx, db, q2.ID, "s-1", "one two three four five")
	testutil.SeedAnswer(t, ctx, db, q1.ID, "s-2", "unsized")
	if err := repo.SetWordCount(ctx, nil, a.ID, 3); err != nil {
		t.Fatalf("SetWordCount: %v", err)
	}
	if err := repo.SetWordCount(ctx, nil, b.ID, 5); err != nil {
		t.Fatalf("SetWordCount: %v", err)
	}

	stats, err := repo.Stats(ctx, nil)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalAnswers != 3 || stats.UniqueStudents != 2 || stats.UniqueQuestions != 2 {
		t.Fatalf("counts: %+v", stats)
	}
	if math.Abs(stats.AverageWordCount-8.0/3) > 1e-9 {
		t.Fatalf("average word count=%v want %v", stats.AverageWordCount, 8.0/3)
	}

	rows, err := repo.List(ctx, nil, 0, 0)
	if err != nil || len(rows) != 3 {
		t.Fatalf("List: len=%d err=%v", len(rows), err)
	}
	byID := map[uuid.UUID]*AnswerListing{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	if got := byID[b.ID]; got == nil || got.QuestionKey != "L-2" || got.StudentID != "s-1" || got.QuestionText != q2.QuestionText {
		t.Fatalf("joined listing: %+v", got)
	}
	if page, err := repo.List(ctx, nil, 2, 2); err != nil || len(page) != 1 {
		t.Fatalf("List(limit 2, offset 2): len=%d err=%v", len(page), err)
	}
}

func TestQuestionRepoList(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	repo := NewQuestionRepo(db, testutil.Logger(t))

	for _, key := range []string{"LQ-1", "LQ-2", "LQ-3"} {
		testutil.SeedQuestion(t, ctx, db, key, 10)
	}
	all, err := repo.List(ctx, nil, 0, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List: len=%d err=%v", len(all), err)
	}
	page, err := repo.List(ctx, nil, 1, 1)
	if err != nil || len(page) != 1 || page[0].ID != all[1].ID {
		t.Fatalf("List(limit 1, offset 1): %v err=%v", page, err)
	}
}
