package product

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	exportBatchSize = 500
	historyLimit    = 200
)

var ExportHeader = []string{
	"ID", "Title", "Description", "Price", "Discount (%)", "Final Price",
	"SSN", "Is Active", "Created On", "Updated On",
}

type QueryProductsUseCase struct {
	products   outbound.ProductRepository
	changeLogs outbound.ChangeLogRepository
}

func NewQueryProductsUseCase(products outbound.ProductRepository, changeLogs outbound.ChangeLogRepository) *QueryProductsUseCase {
	return &QueryProductsUseCase{products: products, changeLogs: changeLogs}
}

// Get hides inactive products from non-privileged viewers.
func (uc *QueryProductsUseCase) Get(ctx context.Context, id string, viewer inbound.Viewer) (*inbound.ProductView, error) {
	p, err := uc.find(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	view := inbound.NewProductView(p)
	return &view, nil
}

func (uc *QueryProductsUseCase) List(ctx context.Context, filter entity.ProductFilter, viewer inbound.Viewer) (*inbound.ListProductsResponse, error) {
	if err := normalizeFilter(&filter, viewer, DefaultPageSize, MaxPageSize); err != nil {
		return nil, err
	}

	products, err := uc.products.List(ctx, filter)
	if err != nil {
		return nil, domainerror.ErrDatabaseError("list products", err)
	}
	total, err := uc.products.Count(ctx, filter)
	if err != nil {
		return nil, domainerror.ErrDatabaseError("count products", err)
	}

	views := make([]inbound.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, inbound.NewProductView(p))
	}

	return &inbound.ListProductsResponse{
		Products: views,
		Pagination: inbound.PaginationInfo{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		},
	}, nil
}

// Export writes every product matching filter as CSV, paging through the
// store. It returns the number of data rows written.
func (uc *QueryProductsUseCase) Export(ctx context.Context, filter entity.ProductFilter, viewer inbound.Viewer, w io.Writer) (int, error) {
	filter.Limit = 0
	filter.Offset = 0
	if err := normalizeFilter(&filter, viewer, 0, 0); err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0
	filter.Limit = exportBatchSize
	for {
		batch, err := uc.products.List(ctx, filter)
		if err != nil {
			return rows, domainerror.ErrDatabaseError("export products", err)
		}
		for _, p := range batch {
			if err := cw.Write(exportRow(p)); err != nil {
				return rows, fmt.Errorf("failed to write csv row: %w", err)
			}
			rows++
		}
		if len(batch) < exportBatchSize {
			break
		}
		filter.Offset += exportBatchSize
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush csv: %w", err)
	}
	return rows, nil
}

// History returns the change records of one product, newest first.
func (uc *QueryProductsUseCase) History(ctx context.Context, id string, viewer inbound.Viewer) ([]*entity.ChangeRecord, error) {
	if _, err := uc.find(ctx, id, viewer); err != nil {
		return nil, err
	}
	records, err := uc.changeLogs.List(ctx, entity.ChangeLogFilter{ProductID: id, Limit: historyLimit})
	if err != nil {
		return nil, domainerror.ErrDatabaseError("list product history", err)
	}
	return records, nil
}

func (uc *QueryProductsUseCase) find(ctx context.Context, id string, viewer inbound.Viewer) (*entity.Product, error) {
	p, err := uc.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrProductNotFound) {
			return nil, domainerror.ErrProductNotFound(id)
		}
		return nil, domainerror.ErrDatabaseError("get product", err)
	}
	if !p.IsActive && !viewer.Privileged {
		return nil, domainerror.ErrProductNotFound(id)
	}
	return p, nil
}

func exportRow(p *entity.Product) []string {
	return []string{
		p.ID,
		p.Title,
		p.Description,
		strconv.FormatFloat(p.Price, 'f', 2, 64),
		strconv.FormatFloat(p.Discount, 'f', 2, 64),
		strconv.FormatFloat(p.FinalPrice(), 'f', 2, 64),
		p.SSN,
		strconv.FormatBool(p.IsActive),
		p.CreatedOn.UTC().Format("2006-01-02 15:04:05"),
		p.UpdatedOn.UTC().Format("2006-01-02 15:04:05"),
	}
}
