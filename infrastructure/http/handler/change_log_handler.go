package handler

import (
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

type ChangeLogHandler struct {
	audit  inbound.AuditQuery
	logger logger.Logger
}

func NewChangeLogHandler(audit inbound.AuditQuery, logger logger.Logger) *ChangeLogHandler {
	return &ChangeLogHandler{
		audit:  audit,
		logger: logger,
	}
}

func (h *ChangeLogHandler) RegisterRoutes(r *mux.Router, auth *middleware.AuthMiddleware) {
	r.HandleFunc("/api/v1/change-logs", auth.RequireAdmin(h.List)).Methods(http.MethodGet)
}

// ChangeRecordView renders a change record with its actor label resolved.
type ChangeRecordView struct {
	ID         string               `json:"id"`
	ProductID  string               `json:"product_id"`
	Action     entity.ChangeAction  `json:"action"`
	ChangedBy  *string              `json:"changed_by"`
	ActorLabel string               `json:"actor"`
	ChangedAt  string               `json:"changed_at"`
	Changes    entity.ChangePayload `json:"changes"`
}

type changeLogPageView struct {
	Records    []ChangeRecordView     `json:"records"`
	Pagination inbound.PaginationInfo `json:"pagination"`
}

func (h *ChangeLogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseChangeLogFilter(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	page, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeError(r.Context(), w, h.logger, "list_change_logs", err)
		return
	}
	response.Success(w, http.StatusOK, "success", changeLogPageView{
		Records:    toChangeRecordViews(page.Records),
		Pagination: page.Pagination,
	})
}

func ParseChangeLogFilter(r *http.Request) (entity.ChangeLogFilter, error) {
	q := r.URL.Query()
	filter := entity.ChangeLogFilter{
		ProductID: q.Get("product_id"),
		Action:    entity.ChangeAction(strings.ToUpper(q.Get("action"))),
		ChangedBy: q.Get("changed_by"),
	}

	for _, t := range []struct {
		name string
		dest **time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
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

func toChangeRecordViews(records []*entity.ChangeRecord) []ChangeRecordView {
	views := make([]ChangeRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, ChangeRecordView{
			ID:         rec.ID,
			ProductID:  rec.ProductID,
			Action:     rec.Action,
			ChangedBy:  rec.ChangedBy,
			ActorLabel: rec.ActorLabel(),
			ChangedAt:  rec.ChangedAt.UTC().Format(time.RFC3339Nano),
			Changes:    rec.Changes,
		})
	}
	return views
}
