package product

import (
	"context"
	"fmt"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

// MaxBatchSize bounds a single bulk create.
const MaxBatchSize = 1000

type BulkCreateProductsUseCase struct {
	products outbound.ProductRepository
	tx       outbound.Transactor
	recorder ChangeRecorder
	metrics  outbound.MutationMetrics
	newID    func() string
}

func NewBulkCreateProductsUseCase(
	products outbound.ProductRepository,
	tx outbound.Transactor,
	recorder ChangeRecorder,
	metrics outbound.MutationMetrics,
	newID func() string,
) *BulkCreateProductsUseCase {
	return &BulkCreateProductsUseCase{
		products: products,
		tx:       tx,
		recorder: recorder,
		metrics:  metrics,
		newID:    newID,
	}
}

// Execute creates every product or none of them.
func (uc *BulkCreateProductsUseCase) Execute(ctx context.Context, inputs []inbound.ProductInput, actor *string) (created []*entity.Product, err error) {
	defer func() { uc.metrics.MutationCompleted("bulk_create", status(err)) }()

	if len(inputs) == 0 {
		return nil, domainerror.ErrEmptyBatch()
	}
	if len(inputs) > MaxBatchSize {
		return nil, domainerror.ErrInvalidRequest(fmt.Sprintf("batch holds %d products, at most %d allowed", len(inputs), MaxBatchSize))
	}

	normalized := make([]inbound.ProductInput, len(inputs))
	ssns := make([]string, len(inputs))
	for i, in := range inputs {
		in = normalizeInput(in)
		if err := ValidateInput(in, fmt.Sprintf("items[%d].", i)); err != nil {
			return nil, err
		}
		normalized[i] = in
		ssns[i] = in.SSN
	}

	if dups := duplicateSSNs(normalized); len(dups) > 0 {
		return nil, domainerror.ErrDuplicateInBatch(dups...)
	}

	existing, err := uc.products.FindExistingSSNs(ctx, ssns)
	if err != nil {
		return nil, domainerror.ErrDatabaseError("check ssn", fmt.Errorf("failed to check existing ssns: %w", err))
	}
	if len(existing) > 0 {
		return nil, domainerror.ErrDuplicateSSN(existing...)
	}

	products := make([]*entity.Product, len(normalized))
	for i, in := range normalized {
		products[i] = entity.NewProduct(uc.newID(), in.Title, in.Description, in.Price, in.Discount, in.SSN, actor)
	}

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, p := range products {
			if err := uc.products.Create(ctx, p); err != nil {
				return err
			}
			if _, err := uc.recorder.Record(ctx, entity.ChangeActionCreated, nil, p, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError("bulk create products", "", err, ssns...)
	}

	return products, nil
}
