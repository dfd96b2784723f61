package audit

import (
	"context"
	"fmt"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type QueryUseCase struct {
	repo outbound.ChangeLogRepository
}

func NewQueryUseCase(repo outbound.ChangeLogRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

func (uc *QueryUseCase) List(ctx context.Context, filter entity.ChangeLogFilter) (*inbound.ChangeLogPage, error) {
	if err := NormalizeFilter(&filter); err != nil {
		return nil, err
	}

	records, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list change records: %w", err)
	}
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count change records: %w", err)
	}

	return &inbound.ChangeLogPage{
		Records: records,
		Pagination: inbound.PaginationInfo{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		},
	}, nil
}

// NormalizeFilter applies paging defaults and rejects impossible filters.
func NormalizeFilter(filter *entity.ChangeLogFilter) error {
	if filter.Action != "" && !filter.Action.Valid() {
		return domainerror.ErrInvalidFilter(fmt.Sprintf("unknown action %q", filter.Action))
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return domainerror.ErrInvalidFilter("from must not be after to")
	}
	if filter.Offset < 0 {
		return domainerror.ErrInvalidFilter("offset must not be negative")
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	return nil
}
