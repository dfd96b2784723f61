package handler

import (
	"encoding/json"
	"net/http"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/infrastructure/http/middleware"
	"github.com/vendora/vendora/infrastructure/http/response"
	"github.com/vendora/vendora/infrastructure/http/validator"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	logger      logger.Logger
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		logger:      logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req inbound.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.BadRequest(w, "Invalid email format")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.BadRequest(w, "Password is required")
		return
	}

	ctx := r.Context()
	clientIP := middleware.ClientIP(r)

	loginRes, err := h.authUseCase.Login(ctx, req)
	if err != nil {
		logger.LogAuthEvent(ctx, h.logger, "login", "", clientIP, false, map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		response.FromError(w, err)
		return
	}

	logger.LogAuthEvent(ctx, h.logger, "login", loginRes.User.ID, clientIP, true, nil)
	response.Success(w, http.StatusOK, "success", loginRes)
}

// Me echoes the identity carried by the access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	response.Success(w, http.StatusOK, "success", inbound.MeResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	})
}
