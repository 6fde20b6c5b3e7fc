package services

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/yungbote/examiner-backend/internal/data/repos/testutil"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/dbctx"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
)

func TestCreateAndGetQuestion(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()

	q, err := h.refs.CreateQuestion(ctx, CreateQuestionInput{
		QuestionKey:  "PHY-1",
		Subject:      "Physics",
		QuestionText: "State Newton's first law.",
		IdealAnswer:  "Objects keep their state of motion unless a net force acts.",
		MaxMarks:     10,
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q.PassingThreshold != types.DefaultPassingThreshold {
		t.Fatalf("threshold=%v want default", q.PassingThreshold)
	}

	got, err := h.refs.GetQuestion(dbctx.Context{Ctx: ctx}, " PHY-1 ")
	if err != nil || got.ID != q.ID {
		t.Fatalf("GetQuestion: %v %v", got, err)
	}
	if _, err := h.refs.GetQuestion(dbctx.Context{Ctx: ctx}, "PHY-404"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("missing question err=%v want ErrNotFound", err)
	}
	_, err = h.refs.CreateQuestion(ctx, CreateQuestionInput{QuestionKey: "PHY-1", QuestionText: "x", IdealAnswer: "y", MaxMarks: 5})
	if !stderrors.Is(err, errors.ErrConflict) {
		t.Fatalf("duplicate err=%v want ErrConflict", err)
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	cases := map[string]CreateQuestionInput{
		"missing key":       {QuestionText: "q", IdealAnswer: "a", MaxMarks: 1},
		"missing answer":    {QuestionKey: "k", QuestionText: "q", MaxMarks: 1},
		"zero marks":        {QuestionKey: "k", QuestionText: "q", IdealAnswer: "a"},
		"threshold too big": {QuestionKey: "k", QuestionText: "q", IdealAnswer: "a", MaxMarks: 1, PassingThreshold: 120},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := h.refs.CreateQuestion(context.Background(), in); !stderrors.Is(err, errors.ErrInvalidArgument) {
				t.Fatalf("err=%v want ErrInvalidArgument", err)
			}
		})
	}
}

func TestUpdateMaxMarksBeforeExtraction(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	testutil.SeedQuestion(t, ctx, h.db, "Q-MARKS", 10)

	q, err := h.refs.UpdateMaxMarks(ctx, "Q-MARKS", 25)
	if err != nil {
		t.Fatalf("UpdateMaxMarks: %v", err)
	}
	if q.MaxMarks != 25 {
		t.Fatalf("marks=%v want 25", q.MaxMarks)
	}
	if _, err := h.refs.UpdateMaxMarks(ctx, "Q-MARKS", 0); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("zero marks err=%v want ErrInvalidArgument", err)
	}
}

func TestReplaceCriteria(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	testutil.SeedQuestion(t, ctx, h.db, "Q-RUBRIC", 10)

	if _, err := h.refs.ReplaceCriteria(ctx, "Q-RUBRIC", []CriterionInput{{Name: "Content", MaxPoints: 11}}); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("over budget err=%v want ErrInvalidArgument", err)
	}
	if _, err := h.refs.ReplaceCriteria(ctx, "Q-RUBRIC", []CriterionInput{{Name: "Old", MaxPoints: 10}}); err != nil {
		t.Fatalf("ReplaceCriteria: %v", err)
	}
	rows, err := h.refs.ReplaceCriteria(ctx, "Q-RUBRIC", []CriterionInput{{Name: "Content", MaxPoints: 7}, {Name: "Clarity", MaxPoints: 3, Weight: 0.5}})
	if err != nil {
		t.Fatalf("ReplaceCriteria: %v", err)
	}
	details, err := h.refs.GetQuestionDetails(dbctx.Context{Ctx: ctx}, "Q-RUBRIC")
	if err != nil {
		t.Fatalf("GetQuestionDetails: %v", err)
	}
	if len(rows) != 2 || len(details.Criteria) != 2 || details.Criteria[1].Name != "Clarity" || details.Criteria[1].Weight != 0.5 {
		t.Fatalf("criteria not replaced: %+v", details.Criteria)
	}
}

func TestListQuestions(t *testing.T) {
	h := newHarness(t, WorkflowOptions{})
	ctx := context.Background()
	for _, key := range []string{"LIST-1", "LIST-2", "LIST-3"} {
		testutil.SeedQuestion(t, ctx, h.db, key, 10)
	}

	all, err := h.refs.ListQuestions(dbctx.Context{Ctx: ctx}, Page{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListQuestions: len=%d err=%v", len(all), err)
	}
	page, err := h.refs.ListQuestions(dbctx.Context{Ctx: ctx}, Page{Limit: 2, Offset: 2})
	if err != nil || len(page) != 1 || page[0].ID != all[2].ID {
		t.Fatalf("second page: %v err=%v", page, err)
	}
	if _, err := h.refs.ListQuestions(dbctx.Context{Ctx: ctx}, Page{Limit: -1}); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("negative limit: err=%v want ErrInvalidArgument", err)
	}
}

func TestPageNormalize(t *testing.T) {
	cases := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Limit: defaultPageSize}},
		{Page{Limit: 10, Offset: 5}, Page{Limit: 10, Offset: 5}},
		{Page{Limit: maxPageSize + 1}, Page{Limit: maxPageSize}},
	}
	for _, tc := range cases {
		got, err := tc.in.normalize()
		if err != nil || got != tc.want {
			t.Fatalf("normalize(%+v)=%+v err=%v want %+v", tc.in, got, err, tc.want)
		}
	}
}
