package product

import (
	"context"
	"fmt"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

type UpdateProductUseCase struct {
	products outbound.ProductRepository
	tx       outbound.Transactor
	recorder ChangeRecorder
	metrics  outbound.MutationMetrics
}

func NewUpdateProductUseCase(
	products outbound.ProductRepository,
	tx outbound.Transactor,
	recorder ChangeRecorder,
	metrics outbound.MutationMetrics,
) *UpdateProductUseCase {
	return &UpdateProductUseCase{
		products: products,
		tx:       tx,
		recorder: recorder,
		metrics:  metrics,
	}
}

func (uc *UpdateProductUseCase) Execute(ctx context.Context, id string, patch inbound.ProductPatch, actor *string) (*entity.Product, error) {
	p, err := uc.apply(ctx, id, patch, actor)
	uc.metrics.MutationCompleted("update", status(err))
	return p, err
}

// SoftDelete is an update that only clears is_active. The record becomes
// DISABLED when the product was active.
func (uc *UpdateProductUseCase) SoftDelete(ctx context.Context, id string, actor *string) (*entity.Product, error) {
	inactive := false
	p, err := uc.apply(ctx, id, inbound.ProductPatch{IsActive: &inactive}, actor)
	uc.metrics.MutationCompleted("soft_delete", status(err))
	return p, err
}

func (uc *UpdateProductUseCase) apply(ctx context.Context, id string, patch inbound.ProductPatch, actor *string) (*entity.Product, error) {
	if id == "" {
		return nil, domainerror.ErrMissingField("id")
	}

	var updated *entity.Product
	err := uc.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := uc.products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		before := p.Snapshot()
		previousSSN := p.SSN

		if err := applyPatch(p, patch); err != nil {
			return err
		}

		if p.SSN != previousSSN {
			exists, err := uc.products.ExistsBySSN(ctx, p.SSN, p.ID)
			if err != nil {
				return fmt.Errorf("failed to check ssn existence: %w", err)
			}
			if exists {
				return domainerror.ErrDuplicateSSN(p.SSN)
			}
		}

		p.Touch(actor)
		if err := uc.products.Update(ctx, p); err != nil {
			return err
		}

		if _, err := uc.recorder.Record(ctx, entity.ChangeActionUpdated, &before, p, actor); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		ssn := ""
		if patch.SSN != nil {
			ssn = *patch.SSN
		}
		return nil, translateError("update product", id, err, ssn)
	}

	return updated, nil
}
