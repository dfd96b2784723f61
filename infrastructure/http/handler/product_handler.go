package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/domain/entity"
	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/http/middleware"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/http/validator"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

const maxBodyBytes = 8 << 20

type ProductHandler struct {
	products inbound.ProductUseCase
	logger   logger.Logger
}

func NewProductHandler(products inbound.ProductUseCase, logger logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes mounts the product API. Reads need a token, mutations need
// a privileged role.
func (h *ProductHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	api := r.PathPrefix("/api/v1/products").Subrouter()

	api.HandleFunc("", auth.RequireAuth(h.List)).Methods(http.MethodGet)
	api.HandleFunc("/search", auth.RequireAuth(h.Search)).Methods(http.MethodGet)
	api.HandleFunc("/export", auth.RequireAuth(h.Export)).Methods(http.MethodGet)
	api.HandleFunc("/{id}", auth.RequireAuth(h.Get)).Methods(http.MethodGet)
	api.HandleFunc("/{id}/history", auth.RequireAuth(h.History)).Methods(http.MethodGet)

	api.HandleFunc("", auth.RequireAdmin(h.Create)).Methods(http.MethodPost)
	api.HandleFunc("/bulk", auth.RequireAdmin(h.BulkCreate)).Methods(http.MethodPost)
	api.HandleFunc("/{id}", auth.RequireAdmin(h.Update)).Methods(http.MethodPatch, http.MethodPut)
	api.HandleFunc("/{id}", auth.RequireAdmin(h.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/disable", auth.RequireAdmin(h.Delete)).Methods(http.MethodPost)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input inbound.ProductInput
	if !decodeBody(w, r, &input) {
		return
	}

	actor := actorFrom(r)
	product, err := h.products.Create(r.Context(), input, actor)
	if err != nil {
		writeError(r.Context(), w, h.logger, "create_product", err)
		return
	}
	logger.LogAuditEvent(r.Context(), h.logger, "product.create", product.ID, actor, nil)
	response.Success(w, http.StatusCreated, "Product created", inbound.NewProductView(product))
}

type bulkCreateRequest struct {
	Products []inbound.ProductInput `json:"products"`
}

// BulkCreate accepts either a bare JSON array or {"products": [...]}.
func (h *ProductHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !decodeBody(w, r, &raw) {
		return
	}

	var inputs []inbound.ProductInput
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
	} else {
		var req bulkCreateRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
		inputs = req.Products
	}

	actor := actorFrom(r)
	products, err := h.products.BulkCreate(r.Context(), inputs, actor)
	if err != nil {
		writeError(r.Context(), w, h.logger, "bulk_create_products", err)
		return
	}
	logger.LogAuditEvent(r.Context(), h.logger, "product.bulk_create", "", actor, map[string]interface{}{
		"count": len(products),
	})

	views := make([]inbound.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, inbound.NewProductView(p))
	}
	response.Success(w, http.StatusCreated, fmt.Sprintf("%d products created", len(views)), views)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var patch inbound.ProductPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	actor := actorFrom(r)
	product, err := h.products.Update(r.Context(), id, patch, actor)
	if err != nil {
		writeError(r.Context(), w, h.logger, "update_product", err)
		return
	}
	logger.LogAuditEvent(r.Context(), h.logger, "product.update", product.ID, actor, nil)
	response.Success(w, http.StatusOK, "Product updated", inbound.NewProductView(product))
}

// Delete deactivates the product; rows are never removed through the API.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	actor := actorFrom(r)
	product, err := h.products.SoftDelete(r.Context(), id, actor)
	if err != nil {
		writeError(r.Context(), w, h.logger, "soft_delete_product", err)
		return
	}
	logger.LogAuditEvent(r.Context(), h.logger, "product.soft_delete", product.ID, actor, nil)
	response.Success(w, http.StatusOK, "Product deactivated", inbound.NewProductView(product))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	view, err := h.products.Get(r.Context(), id, viewerFrom(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, "get_product", err)
		return
	}
	response.Success(w, http.StatusOK, "success", view)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseProductFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	res, err := h.products.List(r.Context(), filter, viewerFrom(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, "list_products", err)
		return
	}
	response.Success(w, http.StatusOK, "success", res)
}

// Search is List with a mandatory free-text query.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !validator.ValidateRequired(r.URL.Query().Get("q")) {
		response.FromError(w, domainerror.ErrMissingField("q"))
		return
	}
	h.List(w, r)
}

func (h *ProductHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseProductFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	start := time.Now()
	filename := fmt.Sprintf("products_%s.csv", start.UTC().Format("20060102_150405"))
	out := &csvResponse{w: w, filename: filename}

	rows, err := h.products.Export(r.Context(), filter, viewerFrom(r), out)
	if err != nil {
		if !out.started {
			writeError(r.Context(), w, h.logger, "export_products", err)
			return
		}
		h.logger.Error(r.Context(), "Export aborted mid-stream", err, map[string]interface{}{
			"rows": rows,
		})
		return
	}
	if !out.started {
		out.begin()
	}
	logger.LogPerformance(r.Context(), h.logger, "export_products", time.Since(start), map[string]interface{}{
		"rows":     rows,
		"filename": filename,
	})
}

func (h *ProductHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	records, err := h.products.History(r.Context(), id, viewerFrom(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, "product_history", err)
		return
	}
	response.Success(w, http.StatusOK, "success", toChangeRecordViews(records))
}

// ParseProductFilter reads listing filters from the query string.
func ParseProductFilter(r *http.Request) (entity.ProductFilter, error) {
	q := r.URL.Query()
	filter := entity.ProductFilter{
		Query:       strings.TrimSpace(q.Get("q")),
		Title:       q.Get("title"),
		TitleExact:  q.Get("title_exact"),
		Description: q.Get("description"),
		SSN:         q.Get("ssn"),
		Ordering:    q.Get("ordering"),
	}

	if v := q.Get("is_active"); v != "" {
		b, ok := validator.ParseBool(v)
		if !ok {
			return filter, domainerror.ErrInvalidFilter("is_active must be a boolean")
		}
		filter.IsActive = &b
	}

	floats := []struct {
		name string
		dest **float64
	}{
		{"price_min", &filter.PriceMin},
		{"price_max", &filter.PriceMax},
	}
	for _, f := range floats {
		if v := q.Get(f.name); v != "" {
			parsed, ok := validator.ParseFloat(v)
			if !ok {
				return filter, domainerror.ErrInvalidFilter(f.name + " must be a number")
			}
			*f.dest = &parsed
		}
	}

	times := []struct {
		name string
		dest **time.Time
	}{
		{"created_after", &filter.CreatedOnAfter},
		{"created_before", &filter.CreatedOnBefore},
		{"updated_after", &filter.UpdatedOnAfter},
		{"updated_before", &filter.UpdatedOnBefore},
	}
	for _, t := range times {
		if v := q.Get(t.name); v != "" {
			parsed, ok := validator.ParseTime(v)
			if !ok {
				return filter, domainerror.ErrInvalidFilter(t.name + " must be RFC3339 or YYYY-MM-DD")
			}
			*t.dest = &parsed
		}
	}

	limit, offset, err := parsePage(r)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset
	return filter, nil
}

func parsePage(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	var limit, offset int
	if v := q.Get("limit"); v != "" {
		n, ok := validator.ParseInt(v)
		if !ok || n < 0 {
			return 0, 0, domainerror.ErrInvalidFilter("limit must be a non-negative integer")
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, ok := validator.ParseInt(v)
		if !ok || n < 0 {
			return 0, 0, domainerror.ErrInvalidFilter("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// productID rejects ids the store could never have issued.
func productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if !validator.ValidateID(id) {
		response.FromError(w, domainerror.ErrProductNotFound(id))
		return "", false
	}
	return id, true
}

func actorFrom(r *http.Request) *string {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil || claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}

func viewerFrom(r *http.Request) inbound.Viewer {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil {
		return inbound.Viewer{}
	}
	return inbound.Viewer{
		UserID:     claims.UserID,
		Privileged: entity.IsPrivilegedRole(claims.Role),
	}
}

// csvResponse defers the CSV headers until the first byte so a failure
// before any output can still be reported as JSON.
type csvResponse struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (c *csvResponse) begin() {
	c.started = true
	c.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	c.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.filename))
	c.w.WriteHeader(http.StatusOK)
}

func (c *csvResponse) Write(p []byte) (int, error) {
	if !c.started {
		c.begin()
	}
	return c.w.Write(p)
}
