package inbound

import (
	"context"

	"github.com/vendora/vendora/domain/entity"
)

type ChangeLogPage struct {
	Records    []*entity.ChangeRecord `json:"records"`
	Pagination PaginationInfo         `json:"pagination"`
}

// AuditQuery reads the change log newest first.
type AuditQuery interface {
	List(ctx context.Context, filter entity.ChangeLogFilter) (*ChangeLogPage, error)
}
