package dbctx

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/pkg/ctxutil"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns the transaction when set, otherwise fallback bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	ctx := ctxutil.Default(c.Ctx)
	if c.Tx != nil {
		return c.Tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}
