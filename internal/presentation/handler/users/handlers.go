package users

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/virtualclassroom/backend/internal/domain"
	"github.com/virtualclassroom/backend/internal/infrastructure/json"
	"github.com/virtualclassroom/backend/internal/infrastructure/profanity"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/presentation/auth"
)

type Handler struct {
	userRepository  domain.UserRepository
	tokenManager    *security.TokenManager
	profanityFilter *profanity.Filter
}

func NewHandler(
	userRepository domain.UserRepository,
	tokenManager *security.TokenManager,
	profanityFilter *profanity.Filter,
) *Handler {
	return &Handler{
		userRepository:  userRepository,
		tokenManager:    tokenManager,
		profanityFilter: profanityFilter,
	}
}

// RegisterHandler godoc
// @Summary      Register a new account
// @Description  Creates an account and returns a signed bearer token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body registerRequest true "Registration parameters"
// @Success      201 {object} authResponse "Account created"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      409 {object} map[string]interface{} "Conflict - email or username taken"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /user/register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if req.Password == "" || len(req.Password) < 8 {
		json.WriteBadRequestError(w, "Password must be at least 8 characters")
		return
	}

	if h.profanityFilter.Contains(req.Username) {
		json.WriteBadRequestError(w, "Username contains inappropriate language")
		return
	}

	role := req.Role
	if role == "" {
		role = domain.RoleStudent
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	user, err := domain.NewUser(req.Username, req.Email, hash, role)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.userRepository.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			json.WriteError(w, http.StatusConflict, err, "Email already registered")
		case errors.Is(err, domain.ErrUsernameTaken):
			json.WriteError(w, http.StatusConflict, err, "Username already taken")
		default:
			log.Printf("Repository error creating user: %v", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	token, err := h.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// LoginHandler godoc
// @Summary      Log in
// @Description  Verifies credentials and returns a signed bearer token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body loginRequest true "Login credentials"
// @Success      200 {object} authResponse "Authenticated"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      401 {object} map[string]interface{} "Unauthorized - invalid credentials"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /user/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	user, err := h.userRepository.GetByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same response as a wrong password; no account enumeration.
			json.WriteUnauthorizedError(w, "Invalid email or password")
			return
		}
		log.Printf("Repository error fetching user: %v", err)
		json.WriteInternalError(w, err)
		return
	}

	if err := security.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		json.WriteUnauthorizedError(w, "Invalid email or password")
		return
	}

	token, err := h.tokenManager.Generate(user.ID, user.Role)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, authResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// ProfileHandler godoc
// @Summary      Get the authenticated user's profile
// @Tags         users
// @Produce      json
// @Success      200 {object} userResponse "Profile"
// @Failure      401 {object} map[string]interface{} "Unauthorized"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Security     BearerAuth
// @Router       /user/profile [get]
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		json.WriteUnauthorizedError(w, "Missing or invalid authentication")
		return
	}

	user, err := h.userRepository.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			json.WriteUnauthorizedError(w, "Account no longer exists")
			return
		}
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, toUserResponse(user))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
