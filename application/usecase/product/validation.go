package product

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
)

const (
	maxTitleLength = 255
	maxSSNLength   = 64
)

var orderingFields = map[string]bool{
	"created_on": true,
	"updated_on": true,
	"price":      true,
	"title":      true,
}

func normalizeInput(in inbound.ProductInput) inbound.ProductInput {
	in.Title = strings.TrimSpace(in.Title)
	in.SSN = strings.TrimSpace(in.SSN)
	return in
}

// ValidateInput checks a new product. field is prefixed to the error detail
// so bulk callers can point at the offending item.
func ValidateInput(in inbound.ProductInput, field string) error {
	if err := validateTitle(in.Title, field); err != nil {
		return err
	}
	if err := validatePrice(in.Price, field); err != nil {
		return err
	}
	if err := validateDiscount(in.Discount, field); err != nil {
		return err
	}
	return validateSSN(in.SSN, field)
}

// applyPatch validates and applies the non-nil fields of patch to p.
func applyPatch(p *entity.Product, patch inbound.ProductPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title, ""); err != nil {
			return err
		}
		p.Title = title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price, ""); err != nil {
			return err
		}
		p.Price = *patch.Price
	}
	if patch.Discount != nil {
		if err := validateDiscount(*patch.Discount, ""); err != nil {
			return err
		}
		p.Discount = *patch.Discount
	}
	if patch.SSN != nil {
		ssn := strings.TrimSpace(*patch.SSN)
		if err := validateSSN(ssn, ""); err != nil {
			return err
		}
		p.SSN = ssn
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	return nil
}

func validateTitle(title, prefix string) error {
	if title == "" {
		return domainerror.ErrInvalidProduct(prefix+"title", "is required")
	}
	if len(title) > maxTitleLength {
		return domainerror.ErrInvalidProduct(prefix+"title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return nil
}

func validatePrice(price float64, prefix string) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < entity.MinPrice {
		return domainerror.ErrInvalidProduct(prefix+"price", "must be greater than zero")
	}
	if price > entity.MaxPrice {
		return domainerror.ErrInvalidProduct(prefix+"price", fmt.Sprintf("must not exceed %.2f", entity.MaxPrice))
	}
	if !entity.HasCentPrecision(price) {
		return domainerror.ErrInvalidProduct(prefix+"price", "must have at most 2 decimal places")
	}
	return nil
}

func validateDiscount(discount float64, prefix string) error {
	if math.IsNaN(discount) || discount < entity.MinDiscount || discount > entity.MaxDiscount {
		return domainerror.ErrInvalidProduct(prefix+"discount", "must be between 0 and 100")
	}
	if !entity.HasCentPrecision(discount) {
		return domainerror.ErrInvalidProduct(prefix+"discount", "must have at most 2 decimal places")
	}
	return nil
}

func validateSSN(ssn, prefix string) error {
	if ssn == "" {
		return domainerror.ErrInvalidProduct(prefix+"ssn", "is required")
	}
	if len(ssn) > maxSSNLength {
		return domainerror.ErrInvalidProduct(prefix+"ssn", fmt.Sprintf("must be at most %d characters", maxSSNLength))
	}
	return nil
}

// duplicateSSNs returns every SSN that occurs more than once, sorted.
func duplicateSSNs(inputs []inbound.ProductInput) []string {
	seen := make(map[string]int, len(inputs))
	for _, in := range inputs {
		seen[in.SSN]++
	}
	var dups []string
	for ssn, n := range seen {
		if n > 1 {
			dups = append(dups, ssn)
		}
	}
	sort.Strings(dups)
	return dups
}

func normalizeFilter(filter *entity.ProductFilter, viewer inbound.Viewer, defaultLimit, maxLimit int) error {
	if !viewer.Privileged {
		active := true
		filter.IsActive = &active
	}
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return domainerror.ErrInvalidFilter("price_min must not exceed price_max")
	}
	if filter.Ordering == "" {
		filter.Ordering = "-created_on"
	}
	if !orderingFields[strings.TrimPrefix(filter.Ordering, "-")] {
		return domainerror.ErrInvalidFilter(fmt.Sprintf("unsupported ordering %q", filter.Ordering))
	}
	if filter.Offset < 0 {
		return domainerror.ErrInvalidFilter("offset must not be negative")
	}
	if maxLimit > 0 {
		if filter.Limit <= 0 {
			filter.Limit = defaultLimit
		}
		if filter.Limit > maxLimit {
			filter.Limit = maxLimit
		}
	}
	return nil
}
