package handler

import (
	"context"
	"net/http"
	"time"

	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/http/response"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	service string
}

func NewHealthHandler(db Pinger, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		response.FromError(w, domainerror.ErrServiceUnavailable("database", err))
		return
	}
	response.Success(w, http.StatusOK, "healthy", map[string]string{
		"service": h.service,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
