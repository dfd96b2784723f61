package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

func TestQueryUseCase_AppliesDefaults(t *testing.T) {
	repo := new(MockChangeLogRepository)
	expected := entity.ChangeLogFilter{ProductID: "p-1", Limit: DefaultPageSize}
	records := []*entity.ChangeRecord{{ID: "r2"}, {ID: "r1"}}
	repo.On("List", mock.Anything, expected).Return(records, nil)
	repo.On("Count", mock.Anything, expected).Return(2, nil)

	page, err := NewQueryUseCase(repo).List(context.Background(), entity.ChangeLogFilter{ProductID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, records, page.Records)
	assert.Equal(t, 2, page.Pagination.Total)
	assert.Equal(t, DefaultPageSize, page.Pagination.Limit)
	repo.AssertExpectations(t)
}

func TestNormalizeFilter(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		filter  entity.ChangeLogFilter
		wantErr bool
		limit   int
	}{
		{"caps limit", entity.ChangeLogFilter{Limit: 1000}, false, MaxPageSize},
		{"keeps limit", entity.ChangeLogFilter{Limit: 10}, false, 10},
		{"unknown action", entity.ChangeLogFilter{Action: "RENAMED"}, true, 0},
		{"inverted range", entity.ChangeLogFilter{From: &now, To: &earlier}, true, 0},
		{"negative offset", entity.ChangeLogFilter{Offset: -1}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.filter
			err := NormalizeFilter(&f)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domainerror.Is(err, domainerror.ErrCodeInvalidFilter))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.limit, f.Limit)
		})
	}
}
