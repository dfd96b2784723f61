package handler

import (
	"context"
	"net/http"

	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

// writeError renders err and logs it when it is a server-side failure.
func writeError(ctx context.Context, w http.ResponseWriter, log logger.Logger, op string, err error) {
	if status := domainerror.GetHTTPStatusCode(err); status >= http.StatusInternalServerError {
		log.Error(ctx, "Request failed", err, map[string]interface{}{
			"operation": op,
			"status":    status,
		})
	}
	response.FromError(w, err)
}
