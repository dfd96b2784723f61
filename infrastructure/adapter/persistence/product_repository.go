package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vendora/vendora/application/port/outbound"
	"github.com/vendora/vendora/domain/entity"
)

const productColumns = `id, title, description, price, discount, ssn, is_active, created_by, updated_by, created_on, updated_on`

// ssnChunkSize keeps IN lists below driver parameter limits.
const ssnChunkSize = 500

var productOrdering = map[string]string{
	"created_on": "created_on",
	"updated_on": "updated_on",
	"price":      "price",
	"title":      "title",
}

type ProductRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewProductRepository(db *sql.DB, dialect Dialect) *ProductRepository {
	return &ProductRepository{db: db, dialect: dialect}
}

var _ outbound.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if p == nil {
		return fmt.Errorf("product cannot be nil")
	}

	query := r.dialect.Rebind(`
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Description,
		p.Price,
		p.Discount,
		p.SSN,
		p.IsActive,
		nullString(p.CreatedBy),
		nullString(p.UpdatedBy),
		p.CreatedOn.UTC(),
		p.UpdatedOn.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", outbound.ErrDuplicateSSN, p.SSN)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.findByID(ctx, id, false)
}

func (r *ProductRepository) FindByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.findByID(ctx, id, true)
}

func (r *ProductRepository) findByID(ctx context.Context, id string, lock bool) (*entity.Product, error) {
	if id == "" {
		return nil, outbound.ErrProductNotFound
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	if lock {
		query += r.dialect.ForUpdate()
	}

	p, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	if p == nil {
		return fmt.Errorf("product cannot be nil")
	}

	query := r.dialect.Rebind(`
		UPDATE products
		SET title = ?, description = ?, price = ?, discount = ?, ssn = ?,
			is_active = ?, updated_by = ?, updated_on = ?
		WHERE id = ?
	`)

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.Title,
		p.Description,
		p.Price,
		p.Discount,
		p.SSN,
		p.IsActive,
		nullString(p.UpdatedBy),
		p.UpdatedOn.UTC(),
		p.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", outbound.ErrDuplicateSSN, p.SSN)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return outbound.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ExistsBySSN(ctx context.Context, ssn string, excludeID string) (bool, error) {
	query := `SELECT COUNT(*) FROM products WHERE ssn = ?`
	args := []interface{}{ssn}
	if excludeID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}

	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(query), args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ssn existence: %w", err)
	}
	return count > 0, nil
}

func (r *ProductRepository) FindExistingSSNs(ctx context.Context, ssns []string) ([]string, error) {
	var existing []string
	for start := 0; start < len(ssns); start += ssnChunkSize {
		end := start + ssnChunkSize
		if end > len(ssns) {
			end = len(ssns)
		}
		chunk := ssns[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
		query := r.dialect.Rebind(`SELECT ssn FROM products WHERE ssn IN (` + placeholders + `) ORDER BY ssn`)

		args := make([]interface{}, len(chunk))
		for i, s := range chunk {
			args[i] = s
		}

		found, err := r.querySSNs(ctx, query, args)
		if err != nil {
			return nil, err
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

func (r *ProductRepository) querySSNs(ctx context.Context, query string, args []interface{}) ([]string, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing ssns: %w", err)
	}
	defer rows.Close()

	var ssns []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan ssn: %w", err)
		}
		ssns = append(ssns, s)
	}
	return ssns, rows.Err()
}

func (r *ProductRepository) List(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	where, args := r.buildWhere(filter)

	query := `SELECT ` + productColumns + ` FROM products` + where + orderBy(filter.Ordering)
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context, filter entity.ProductFilter) (int, error) {
	where, args := r.buildWhere(filter)

	var total int
	err := conn(ctx, r.db).QueryRowContext(ctx, r.dialect.Rebind(`SELECT COUNT(*) FROM products`+where), args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

func (r *ProductRepository) buildWhere(f entity.ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	like := r.dialect.ContainsOperator()

	if q := strings.TrimSpace(f.Query); q != "" {
		conds = append(conds, fmt.Sprintf(`(title %s ? ESCAPE '\' OR description %s ? ESCAPE '\')`, like, like))
		args = append(args, likePattern(q), likePattern(q))
	}
	if f.Title != "" {
		conds = append(conds, fmt.Sprintf(`title %s ? ESCAPE '\'`, like))
		args = append(args, likePattern(f.Title))
	}
	if f.TitleExact != "" {
		conds = append(conds, `title = ?`)
		args = append(args, f.TitleExact)
	}
	if f.Description != "" {
		conds = append(conds, fmt.Sprintf(`description %s ? ESCAPE '\'`, like))
		args = append(args, likePattern(f.Description))
	}
	if f.SSN != "" {
		conds = append(conds, `ssn = ?`)
		args = append(args, f.SSN)
	}
	if f.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *f.IsActive)
	}
	if f.PriceMin != nil {
		conds = append(conds, `price >= ?`)
		args = append(args, *f.PriceMin)
	}
	if f.PriceMax != nil {
		conds = append(conds, `price <= ?`)
		args = append(args, *f.PriceMax)
	}
	if f.CreatedOnAfter != nil {
		conds = append(conds, `created_on >= ?`)
		args = append(args, f.CreatedOnAfter.UTC())
	}
	if f.CreatedOnBefore != nil {
		conds = append(conds, `created_on <= ?`)
		args = append(args, f.CreatedOnBefore.UTC())
	}
	if f.UpdatedOnAfter != nil {
		conds = append(conds, `updated_on >= ?`)
		args = append(args, f.UpdatedOnAfter.UTC())
	}
	if f.UpdatedOnBefore != nil {
		conds = append(conds, `updated_on <= ?`)
		args = append(args, f.UpdatedOnBefore.UTC())
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(ordering string) string {
	dir := "ASC"
	field := ordering
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
		field = field[1:]
	}
	column, ok := productOrdering[field]
	if !ok {
		column, dir = "created_on", "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, dir)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p         entity.Product
		createdBy sql.NullString
		updatedBy sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.Discount,
		&p.SSN,
		&p.IsActive,
		&createdBy,
		&updatedBy,
		&p.CreatedOn,
		&p.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = stringPtr(createdBy)
	p.UpdatedBy = stringPtr(updatedBy)
	p.CreatedOn = p.CreatedOn.UTC()
	p.UpdatedOn = p.UpdatedOn.UTC()
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
