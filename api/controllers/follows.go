package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/api/validators"
	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

// FollowsCreate follows the user in the path. Following yourself or a user you
// already follow conflicts.
func FollowsCreate(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		followedID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Follow(r.Context(), middleware.UserUUIDFromContext(r.Context()), followedID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "following"})
	}
}

// FollowsDelete unfollows the user in the path. Unfollowing a user never
// followed is a no-op.
func FollowsDelete(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		followedID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unfollow(r.Context(), middleware.UserUUIDFromContext(r.Context()), followedID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unfollowed"})
	}
}

// FollowsListFollowers lists the users following the user in the path.
func FollowsListFollowers(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := validators.PageParams(r)
		items, total, err := svc.ListFollowers(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page, total)
	}
}

// FollowsListFollowing lists the users the user in the path follows.
func FollowsListFollowing(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := validators.PageParams(r)
		items, total, err := svc.ListFollowing(r.Context(), userID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page, total)
	}
}
