package inbound

import (
	"context"
	"io"
	"time"

	"github.com/vendora/vendora/domain/entity"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	SSN         string  `json:"ssn"`
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Discount    *float64 `json:"discount,omitempty"`
	SSN         *string  `json:"ssn,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.Discount == nil && p.SSN == nil && p.IsActive == nil
}

// Viewer describes who is reading. Non-privileged viewers only see active
// products.
type Viewer struct {
	UserID     string
	Privileged bool
}

type ProductView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	FinalPrice  float64 `json:"final_price"`
	SSN         string  `json:"ssn"`
	IsActive    bool    `json:"is_active"`
	CreatedBy   *string `json:"created_by"`
	UpdatedBy   *string `json:"updated_by"`
	CreatedOn   string  `json:"created_on"`
	UpdatedOn   string  `json:"updated_on"`
}

func NewProductView(p *entity.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
		FinalPrice:  p.FinalPrice(),
		SSN:         p.SSN,
		IsActive:    p.IsActive,
		CreatedBy:   p.CreatedBy,
		UpdatedBy:   p.UpdatedBy,
		CreatedOn:   p.CreatedOn.UTC().Format(time.RFC3339),
		UpdatedOn:   p.UpdatedOn.UTC().Format(time.RFC3339),
	}
}

type ListProductsResponse struct {
	Products   []ProductView  `json:"products"`
	Pagination PaginationInfo `json:"pagination"`
}

type PaginationInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type ProductUseCase interface {
	Create(ctx context.Context, input ProductInput, actor *string) (*entity.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch, actor *string) (*entity.Product, error)
	SoftDelete(ctx context.Context, id string, actor *string) (*entity.Product, error)
	BulkCreate(ctx context.Context, inputs []ProductInput, actor *string) ([]*entity.Product, error)

	Get(ctx context.Context, id string, viewer Viewer) (*ProductView, error)
	List(ctx context.Context, filter entity.ProductFilter, viewer Viewer) (*ListProductsResponse, error)
	Export(ctx context.Context, filter entity.ProductFilter, viewer Viewer, w io.Writer) (int, error)
	History(ctx context.Context, id string, viewer Viewer) ([]*entity.ChangeRecord, error)
}
