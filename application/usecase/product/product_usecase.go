package product

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
)

type ProductUseCaseImpl struct {
	createUseCase *CreateProductUseCase
	updateUseCase *UpdateProductUseCase
	bulkUseCase   *BulkCreateProductsUseCase
	queryUseCase  *QueryProductsUseCase
}

func NewProductUseCase(
	products outbound.ProductRepository,
	changeLogs outbound.ChangeLogRepository,
	tx outbound.Transactor,
	recorder ChangeRecorder,
	metrics outbound.MutationMetrics,
) inbound.ProductUseCase {
	if metrics == nil {
		metrics = outbound.NoopMetrics{}
	}
	return &ProductUseCaseImpl{
		createUseCase: NewCreateProductUseCase(products, tx, recorder, metrics, uuid.NewString),
		updateUseCase: NewUpdateProductUseCase(products, tx, recorder, metrics),
		bulkUseCase:   NewBulkCreateProductsUseCase(products, tx, recorder, metrics, uuid.NewString),
		queryUseCase:  NewQueryProductsUseCase(products, changeLogs),
	}
}

func (uc *ProductUseCaseImpl) Create(ctx context.Context, input inbound.ProductInput, actor *string) (*entity.Product, error) {
	return uc.createUseCase.Execute(ctx, input, actor)
}

func (uc *ProductUseCaseImpl) Update(ctx context.Context, id string, patch inbound.ProductPatch, actor *string) (*entity.Product, error) {
	return uc.updateUseCase.Execute(ctx, id, patch, actor)
}

func (uc *ProductUseCaseImpl) SoftDelete(ctx context.Context, id string, actor *string) (*entity.Product, error) {
	return uc.updateUseCase.SoftDelete(ctx, id, actor)
}

func (uc *ProductUseCaseImpl) BulkCreate(ctx context.Context, inputs []inbound.ProductInput, actor *string) ([]*entity.Product, error) {
	return uc.bulkUseCase.Execute(ctx, inputs, actor)
}

func (uc *ProductUseCaseImpl) Get(ctx context.Context, id string, viewer inbound.Viewer) (*inbound.ProductView, error) {
	return uc.queryUseCase.Get(ctx, id, viewer)
}

func (uc *ProductUseCaseImpl) List(ctx context.Context, filter entity.ProductFilter, viewer inbound.Viewer) (*inbound.ListProductsResponse, error) {
	return uc.queryUseCase.List(ctx, filter, viewer)
}

func (uc *ProductUseCaseImpl) Export(ctx context.Context, filter entity.ProductFilter, viewer inbound.Viewer, w io.Writer) (int, error) {
	return uc.queryUseCase.Export(ctx, filter, viewer, w)
}

func (uc *ProductUseCaseImpl) History(ctx context.Context, id string, viewer inbound.Viewer) ([]*entity.ChangeRecord, error) {
	return uc.queryUseCase.History(ctx, id, viewer)
}
