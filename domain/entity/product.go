package entity

import (
	"math"
	"time"
)

const (
	MinPrice    = 0.01
	MaxPrice    = 99999999.99
	MinDiscount = 0.0
	MaxDiscount = 100.0
)

// Product is a catalog item. SSN is the business key and is unique across
// active and inactive products.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    float64   `json:"discount"`
	SSN         string    `json:"ssn"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// NewProduct creates an active product owned by actor. Validation is the
// caller's job.
func NewProduct(id, title, description string, price, discount float64, ssn string, actor *string) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Title:       title,
		Description: description,
		Price:       price,
		Discount:    discount,
		SSN:         ssn,
		IsActive:    true,
		CreatedBy:   copyActor(actor),
		UpdatedBy:   copyActor(actor),
		CreatedOn:   now,
		UpdatedOn:   now,
	}
}

// FinalPrice returns price minus the percentage discount, rounded to cents.
func (p *Product) FinalPrice() float64 {
	return FinalPrice(p.Price, p.Discount)
}

func FinalPrice(price, discount float64) float64 {
	if discount <= 0 {
		return roundCents(price)
	}
	final := roundCents(price - price*discount/100)
	if final < 0 {
		return 0
	}
	return final
}

// Snapshot copies the tracked fields.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Discount:    p.Discount,
		IsActive:    p.IsActive,
	}
}

// Touch marks the product as modified by actor.
func (p *Product) Touch(actor *string) {
	p.UpdatedBy = copyActor(actor)
	p.UpdatedOn = time.Now().UTC()
}

// Deactivate flips IsActive off. It is a regular mutation, never a row
// removal.
func (p *Product) Deactivate(actor *string) {
	p.IsActive = false
	p.Touch(actor)
}

// ProductSnapshot is an immutable copy of the audited fields of a product.
type ProductSnapshot struct {
	Title       string
	Description string
	Price       float64
	Discount    float64
	IsActive    bool
}

// ProductFilter narrows product listings. Nil pointers mean "no constraint".
type ProductFilter struct {
	Query           string
	Title           string
	TitleExact      string
	Description     string
	SSN             string
	IsActive        *bool
	PriceMin        *float64
	PriceMax        *float64
	CreatedOnAfter  *time.Time
	CreatedOnBefore *time.Time
	UpdatedOnAfter  *time.Time
	UpdatedOnBefore *time.Time
	Ordering        string
	Limit           int
	Offset          int
}

// HasCentPrecision reports whether v carries at most two decimal places.
func HasCentPrecision(v float64) bool {
	scaled := v * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-12*math.Max(1, math.Abs(scaled))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func copyActor(actor *string) *string {
	if actor == nil {
		return nil
	}
	a := *actor
	return &a
}
