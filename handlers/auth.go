// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/auth"
	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

type AuthHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// Register handles POST /api/auth/register
// The first account ever registered becomes SuperAdmin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.FullName) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "full_name must be at least 2 characters")
		return
	}
	if !strings.Contains(req.Email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	var userCount int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM app_user`).Scan(&userCount); err != nil {
		slog.Error("failed to count users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	role := models.RoleVoter
	if userCount == 0 {
		role = models.RoleSuperAdmin
	}

	user := models.User{
		ID:           uuid.NewString(),
		TenantID:     models.DefaultTenant,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: auth.HashPassword(req.Password, h.cfg.AuthSecret),
		Coefficient:  1.0,
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    nowMillis(),
	}

	_, err := h.db.Exec(`
		INSERT INTO app_user (id, tenant_id, email, full_name, password_hash, coefficient, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.TenantID, user.Email, user.FullName, user.PasswordHash,
		user.Coefficient, user.Role, user.Status, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "User with this email already exists")
			return
		}
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	actor := claimsFor(user)
	logAction(h.db, actor, models.ActionUserRegister, user.ID, "User", map[string]any{"email": user.Email})

	token, err := h.issueToken(user)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)

	middleware.JSONResponse(w, http.StatusCreated, models.AuthResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := scanUser(h.db.QueryRow(`SELECT `+userColumns+` FROM app_user WHERE email = $1`, req.Email))
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash, h.cfg.AuthSecret) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	logAction(h.db, claimsFor(user), models.ActionUserLogin, user.ID, "User", nil)

	token, err := h.issueToken(user)
	if err != nil {
		slog.Error("failed to sign token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) issueToken(user models.User) (string, error) {
	claims := claimsFor(user)
	claims.ExpiresAt = auth.ExpiryFrom(time.Now(), h.cfg.TokenTTL)
	return auth.GenerateToken(claims, h.cfg.AuthSecret)
}

func claimsFor(user models.User) auth.Claims {
	return auth.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
}
