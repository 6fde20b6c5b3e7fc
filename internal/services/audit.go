package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yungbote/examiner-backend/internal/data/repos"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/pkg/ctxutil"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

// auditor writes audit rows outside any pipeline transaction. Failures are
// logged and swallowed.
type auditor struct {
	repo repos.AuditLogRepo
	log  *logger.Logger
}

type auditEvent struct {
	Type       string
	EntityType string
	EntityID   string
	Data       map[string]any
	Err        error
	Elapsed    time.Duration
}

func (a *auditor) record(ctx context.Context, ev auditEvent) {
	if a == nil || a.repo == nil {
		return
	}
	row := &types.AuditLog{
		EventType:        ev.Type,
		EntityType:       ev.EntityType,
		EntityID:         ev.EntityID,
		RequestID:        ctxutil.RequestID(ctx),
		ResultStatus:     "success",
		ProcessingTimeMs: ev.Elapsed.Milliseconds(),
	}
	if len(ev.Data) > 0 {
		if b, err := json.Marshal(ev.Data); err == nil {
			row.EventData = b
		}
	}
	if ev.Err != nil {
		row.ResultStatus = "failure"
		row.ErrorCode = errors.Code(ev.Err)
		row.ErrorMessage = ev.Err.Error()
	}
	// Audit rows outlive request cancellation.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctxutil.Default(ctx)), 5*time.Second)
	defer cancel()
	if err := a.repo.Create(wctx, nil, row); err != nil {
		a.log.Warn("Audit write failed", "event_type", ev.Type, "entity_id", ev.EntityID, "error", err)
	}
}
