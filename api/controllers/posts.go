package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/api/validators"
	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

type createPostRequest struct {
	Content  string  `json:"content" validate:"required,min=1,max=280"`
	MediaURL *string `json:"media_url,omitempty" validate:"omitempty,max=500,url"`
}

// PostsCreate creates a post. A repeated request carrying the same
// Idempotency-Key header returns the post created the first time.
func PostsCreate(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		authorID := middleware.UserUUIDFromContext(r.Context())
		post, err := svc.Create(r.Context(), authorID, posts.CreatePostInput{
			Content:        body.Content,
			MediaURL:       body.MediaURL,
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// PostsGet returns a single post.
func PostsGet(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.Get(r.Context(), postID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// PostsList lists posts, optionally filtered by the author_id query param.
func PostsList(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := validators.PageParams(r)

		var authorID *uuid.UUID
		if raw := r.URL.Query().Get("author_id"); raw != "" {
			id, err := validators.PathUUID(raw, "author id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			authorID = &id
		}

		items, total, err := svc.List(r.Context(), authorID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page, total)
	}
}

// PostsDelete removes a post; only the author or an admin may.
func PostsDelete(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if err := svc.Delete(ctx, postID, middleware.UserUUIDFromContext(ctx), middleware.IsAdminFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// PostsLike records a like; a second like of the same post conflicts.
func PostsLike(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Like(r.Context(), postID, middleware.UserUUIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "liked"})
	}
}

// PostsUnlike removes a like; unliking a post never liked is a no-op.
func PostsUnlike(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unlike(r.Context(), postID, middleware.UserUUIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unliked"})
	}
}

// PostsLikeCount reads the cached like counter, falling back to the primary
// store when the cache is cold.
func PostsLikeCount(svc posts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.LikeCount(r.Context(), postID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"post_id": postID, "like_count": count})
	}
}
