package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/productapp/catalog-backend/internal/http/response"
	"github.com/productapp/catalog-backend/internal/observability"
	"github.com/productapp/catalog-backend/internal/service"
)

type AuthHandler struct {
	svc service.AuthServiceInterface
}

func NewAuthHandler(svc service.AuthServiceInterface) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	summary, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthMissingFields),
			errors.Is(err, service.ErrUserExists):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to register user", nil)
		}
		return
	}

	observability.Audit(r, "auth.register", "user_id", summary.ID, "email", summary.Email)
	response.JSON(w, r, http.StatusCreated, map[string]any{"message": "User registered successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	summary, err := h.svc.Login(r.Context(), service.LoginInput{Email: body.Email, Password: body.Password})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthMissingFields):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to log in", nil)
		}
		return
	}

	observability.Audit(r, "auth.login", "user_id", summary.ID, "email", summary.Email)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    summary,
	})
}
