package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/api/validators"
	"github.com/aferreira-dev/socialio-backend/internal/feed"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

// FeedGet returns the authenticated user's feed page.
func FeedGet(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := validators.PageParams(r)
		items, err := svc.Get(r.Context(), middleware.UserUUIDFromContext(r.Context()), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items": items,
			"page":  page.Normalize().Page,
			"size":  page.Normalize().Size,
		})
	}
}

// FeedAuthorTimeline returns an author's recent posts, newest first.
func FeedAuthorTimeline(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, err := validators.PathUUID(chi.URLParam(r, "userId"), "user id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.AuthorTimeline(r.Context(), authorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
