package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
	"github.com/SWENT-team09-2025/joinme-backend/internal/middleware"
	"github.com/SWENT-team09-2025/joinme-backend/internal/profile"
)

// CreateProfileRequest is the POST body for a profile. The profile ID is the
// caller's user ID; one profile per user.
type CreateProfileRequest struct {
	Handle             string   `json:"handle"`
	Name               string   `json:"name"`
	Bio                string   `json:"bio,omitempty"`
	FavoriteCategories []string `json:"favorite_categories,omitempty"`
}

// UpdateProfileRequest is the PATCH body for a profile.
type UpdateProfileRequest struct {
	Handle             *string  `json:"handle,omitempty"`
	Name               *string  `json:"name,omitempty"`
	Bio                *string  `json:"bio,omitempty"`
	FavoriteCategories []string `json:"favorite_categories,omitempty"`
}

// ProfileHandlers holds dependencies for profile HTTP handlers.
type ProfileHandlers struct {
	profiles profile.Repository
}

// NewProfileHandlers creates a new ProfileHandlers instance.
func NewProfileHandlers(profiles profile.Repository) *ProfileHandlers {
	return &ProfileHandlers{profiles: profiles}
}

// parseFavorites validates the favorite category names.
func parseFavorites(raw []string) ([]event.Category, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	categories := make([]event.Category, 0, len(raw))
	for _, r := range raw {
		cat, err := event.ParseCategory(r)
		if err != nil {
			return nil, "must be one of: SPORTS, ACTIVITY, SOCIAL"
		}
		categories = append(categories, cat)
	}
	return categories, ""
}

// CreateProfile handles POST /profiles.
func (h *ProfileHandlers) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Handle) == "" {
		fields["handle"] = "cannot be empty"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "cannot be empty"
	}
	favorites, msg := parseFavorites(req.FavoriteCategories)
	if msg != "" {
		fields["favorite_categories"] = msg
	}
	if len(fields) > 0 {
		WriteValidationError(w, ctx, fields)
		return
	}

	p := &profile.Profile{
		ID:                 userID,
		Handle:             strings.TrimSpace(req.Handle),
		Name:               strings.TrimSpace(req.Name),
		Bio:                strings.TrimSpace(req.Bio),
		FavoriteCategories: favorites,
	}

	if err := h.profiles.Insert(ctx, p); err != nil {
		if errors.Is(err, profile.ErrDuplicateID) {
			WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, "Profile already exists")
			return
		}
		slog.ErrorContext(ctx, "failed to create profile", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to create profile")
		return
	}

	WriteJSON(w, ctx, http.StatusCreated, p)
}

// GetProfile handles GET /profiles/{id}.
func (h *ProfileHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.profiles.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get profile", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve profile")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, p)
}

// UpdateProfile handles PATCH /profiles/{id}. Users can only edit their own
// profile.
func (h *ProfileHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}
	if r.PathValue("id") != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Cannot edit another user's profile")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	p, err := h.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return
		}
		slog.ErrorContext(ctx, "failed to get profile", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to retrieve profile")
		return
	}

	fields := make(map[string]string)
	if req.Handle != nil {
		if strings.TrimSpace(*req.Handle) == "" {
			fields["handle"] = "cannot be empty"
		} else {
			p.Handle = strings.TrimSpace(*req.Handle)
		}
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			fields["name"] = "cannot be empty"
		} else {
			p.Name = strings.TrimSpace(*req.Name)
		}
	}
	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.FavoriteCategories != nil {
		favorites, msg := parseFavorites(req.FavoriteCategories)
		if msg != "" {
			fields["favorite_categories"] = msg
		} else {
			p.FavoriteCategories = favorites
		}
	}
	if len(fields) > 0 {
		WriteValidationError(w, ctx, fields)
		return
	}

	if err := h.profiles.Update(ctx, p); err != nil {
		slog.ErrorContext(ctx, "failed to update profile", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to update profile")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, p)
}

// DeleteProfile handles DELETE /profiles/{id}. Users can only delete their own
// profile.
func (h *ProfileHandlers) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthRequired, "Missing user identity")
		return
	}
	if r.PathValue("id") != userID {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Cannot delete another user's profile")
		return
	}

	if err := h.profiles.Delete(ctx, userID); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return
		}
		slog.ErrorContext(ctx, "failed to delete profile", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
