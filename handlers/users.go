// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danielhkuo/agora/auth"
	"github.com/danielhkuo/agora/cliparse"
	"github.com/danielhkuo/agora/middleware"
	"github.com/danielhkuo/agora/models"
)

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := listUsers(h.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())

	var req models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Email == "" || len(req.FullName) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and full_name are required")
		return
	}
	if req.Coefficient < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "coefficient must be non-negative")
		return
	}
	if !validRole(req.Role) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid role")
		return
	}

	user := models.User{
		ID:             uuid.NewString(),
		TenantID:       models.DefaultTenant,
		Email:          req.Email,
		FullName:       req.FullName,
		Identification: req.Identification,
		Coefficient:    req.Coefficient,
		Role:           req.Role,
		Status:         models.UserActive,
		CreatedAt:      nowMillis(),
	}

	_, err := h.db.Exec(`
		INSERT INTO app_user (id, tenant_id, email, full_name, identification, coefficient, role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, user.ID, user.TenantID, user.Email, user.FullName, nullable(user.Identification),
		user.Coefficient, user.Role, user.Status, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "User with this email already exists")
			return
		}
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	logAction(h.db, actor, models.ActionUserCreate, user.ID, "User", map[string]any{"email": user.Email})
	slog.Info("user created", "user_id", user.ID, "actor", actor.UserID)

	middleware.JSONResponse(w, http.StatusCreated, user)
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	var req models.UpdateUserRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := getUser(h.db, id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	changes := []string{}
	if req.Email != nil {
		user.Email = *req.Email
		changes = append(changes, "email")
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
		changes = append(changes, "full_name")
	}
	if req.Coefficient != nil {
		if *req.Coefficient < 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "coefficient must be non-negative")
			return
		}
		user.Coefficient = *req.Coefficient
		changes = append(changes, "coefficient")
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid role")
			return
		}
		user.Role = *req.Role
		changes = append(changes, "role")
	}
	if req.Status != nil {
		if *req.Status != models.UserActive && *req.Status != models.UserInactive {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid status")
			return
		}
		user.Status = *req.Status
		changes = append(changes, "status")
	}

	_, err = h.db.Exec(`
		UPDATE app_user SET email = $1, full_name = $2, coefficient = $3, role = $4, status = $5
		WHERE id = $6
	`, user.Email, user.FullName, user.Coefficient, user.Role, user.Status, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "User with this email already exists")
			return
		}
		slog.Error("failed to update user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	logAction(h.db, actor, models.ActionUserUpdate, user.ID, "User", map[string]any{"changes": changes})

	middleware.JSONResponse(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/profile
// Updates the authenticated caller's own record.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())

	var req models.UpdateProfileRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	user, err := getUser(h.db, actor.UserID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	changes := []string{}
	if req.FullName != nil {
		if len(*req.FullName) < 2 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "full_name must be at least 2 characters")
			return
		}
		user.FullName = *req.FullName
		changes = append(changes, "full_name")
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		user.PasswordHash = auth.HashPassword(*req.Password, h.cfg.AuthSecret)
		changes = append(changes, "password")
	}

	_, err = h.db.Exec(`
		UPDATE app_user SET full_name = $1, password_hash = $2 WHERE id = $3
	`, user.FullName, user.PasswordHash, user.ID)
	if err != nil {
		slog.Error("failed to update profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	logAction(h.db, actor, models.ActionUserUpdate, user.ID, "User", map[string]any{"changes": changes})

	middleware.JSONResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())
	id := r.PathValue("id")

	res, err := h.db.Exec(`DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	logAction(h.db, actor, models.ActionUserDelete, id, "User", nil)

	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: id, Deleted: true})
}

// BatchImport handles POST /api/users/batch
// Accepts a JSON array of user definitions, as produced by CSV import.
func (h *UserHandler) BatchImport(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ClaimsFrom(r.Context())

	var reqs []models.CreateUserRequest
	if err := middleware.ParseJSONBody(r, &reqs); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created := []models.User{}
	for _, req := range reqs {
		if req.Email == "" || len(req.FullName) < 2 || req.Coefficient < 0 || !validRole(req.Role) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid user entry: "+req.Email)
			return
		}
		user := models.User{
			ID:             uuid.NewString(),
			TenantID:       models.DefaultTenant,
			Email:          req.Email,
			FullName:       req.FullName,
			Identification: req.Identification,
			Coefficient:    req.Coefficient,
			Role:           req.Role,
			Status:         models.UserActive,
			CreatedAt:      nowMillis(),
		}
		_, err := h.db.Exec(`
			INSERT INTO app_user (id, tenant_id, email, full_name, identification, coefficient, role, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, user.ID, user.TenantID, user.Email, user.FullName, nullable(user.Identification),
			user.Coefficient, user.Role, user.Status, user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				middleware.ErrorResponse(w, http.StatusConflict, "duplicate email: "+user.Email)
				return
			}
			slog.Error("failed to insert user", "error", err, "email", user.Email)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import users")
			return
		}
		created = append(created, user)
	}

	logAction(h.db, actor, models.ActionUserBatchImport, actor.UserID, "System", map[string]any{"count": len(created)})
	slog.Info("users imported", "count", len(created), "actor", actor.UserID)

	middleware.JSONResponse(w, http.StatusCreated, created)
}

func validRole(role string) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleModerator, models.RoleVoter, models.RoleObserver:
		return true
	}
	return false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
