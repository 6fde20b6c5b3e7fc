package services

import (
	"fmt"

	"github.com/yungbote/examiner-backend/internal/pkg/errors"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// Page bounds a listing. A zero Limit means the default page size.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() (Page, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return p, fmt.Errorf("%w: limit and offset must not be negative", errors.ErrInvalidArgument)
	}
	if p.Limit == 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p, nil
}
