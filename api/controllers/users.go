package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/api/validators"
	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/internal/users"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

type updateProfileRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=280"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// UsersMe returns the authenticated user's profile.
func UsersMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())
		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UsersUpdateMe applies profile mutations for the authenticated user.
func UsersUpdateMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserUUIDFromContext(r.Context())
		user, err := svc.UpdateProfile(r.Context(), userID, users.UpdateProfileInput{
			Email:    body.Email,
			Username: body.Username,
			Bio:      body.Bio,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UsersSearch lists users matching the q query parameter.
func UsersSearch(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := validators.PageParams(r)
		items, total, err := svc.Search(r.Context(), r.URL.Query().Get("q"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page, total)
	}
}

// UsersGet returns a user's public profile with their follower count.
func UsersGet(svc users.Service, followsSvc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var followers int64
		if followsSvc != nil {
			if count, err := followsSvc.FollowerCount(r.Context(), userID); err == nil {
				followers = count
			} else if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "follower count unavailable")
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"user":           user,
			"follower_count": followers,
		})
	}
}
