package outbound

import (
	"context"
	"errors"

	"github.com/vendora/vendora/domain/entity"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSSN    = errors.New("duplicate product ssn")
)

// ProductRepository persists products. Every method joins the transaction
// carried by ctx when there is one.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByIDForUpdate locks the row for the rest of the transaction where
	// the store supports it.
	FindByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// ExistsBySSN ignores the product with excludeID, if any.
	ExistsBySSN(ctx context.Context, ssn string, excludeID string) (bool, error)
	// FindExistingSSNs returns the subset of ssns already stored.
	FindExistingSSNs(ctx context.Context, ssns []string) ([]string, error)
	List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	Count(ctx context.Context, filter entity.ProductFilter) (int, error)
}
