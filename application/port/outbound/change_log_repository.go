package outbound

import (
	"context"

	"github.com/vendora/vendora/domain/entity"
)

// ChangeLogRepository is the append-only audit log store. There is no
// update or delete.
type ChangeLogRepository interface {
	Append(ctx context.Context, record *entity.ChangeRecord) error
	List(ctx context.Context, filter entity.ChangeLogFilter) ([]*entity.ChangeRecord, error)
	Count(ctx context.Context, filter entity.ChangeLogFilter) (int, error)
}
