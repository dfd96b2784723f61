package product

import (
	"context"
	"fmt"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

// ChangeRecorder appends the audit record of a mutation. It must be called
// with the transaction context of that mutation.
type ChangeRecorder interface {
	Record(ctx context.Context, action entity.ChangeAction, before *entity.ProductSnapshot, after *entity.Product, actor *string) (*entity.ChangeRecord, error)
}

type CreateProductUseCase struct {
	products outbound.ProductRepository
	tx       outbound.Transactor
	recorder ChangeRecorder
	metrics  outbound.MutationMetrics
	newID    func() string
}

func NewCreateProductUseCase(
	products outbound.ProductRepository,
	tx outbound.Transactor,
	recorder ChangeRecorder,
	metrics outbound.MutationMetrics,
	newID func() string,
) *CreateProductUseCase {
	return &CreateProductUseCase{
		products: products,
		tx:       tx,
		recorder: recorder,
		metrics:  metrics,
		newID:    newID,
	}
}

func (uc *CreateProductUseCase) Execute(ctx context.Context, input inbound.ProductInput, actor *string) (product *entity.Product, err error) {
	defer func() { uc.metrics.MutationCompleted("create", status(err)) }()

	input = normalizeInput(input)
	if err := ValidateInput(input, ""); err != nil {
		return nil, err
	}

	exists, err := uc.products.ExistsBySSN(ctx, input.SSN, "")
	if err != nil {
		return nil, domainerror.ErrDatabaseError("check ssn", fmt.Errorf("failed to check ssn existence: %w", err))
	}
	if exists {
		return nil, domainerror.ErrDuplicateSSN(input.SSN)
	}

	p := entity.NewProduct(uc.newID(), input.Title, input.Description, input.Price, input.Discount, input.SSN, actor)

	err = uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.products.Create(ctx, p); err != nil {
			return err
		}
		_, err := uc.recorder.Record(ctx, entity.ChangeActionCreated, nil, p, actor)
		return err
	})
	if err != nil {
		return nil, translateError("create product", p.ID, err, input.SSN)
	}

	return p, nil
}
