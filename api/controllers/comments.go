package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/api/validators"
	"github.com/aferreira-dev/socialio-backend/internal/comments"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

type createCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=280"`
}

// CommentsAdd attaches a comment to a post.
func CommentsAdd(svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCommentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.Add(r.Context(), postID, middleware.UserUUIDFromContext(r.Context()), body.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}

// CommentsList returns a post's comments, oldest first.
func CommentsList(svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := validators.PathUUID(chi.URLParam(r, "postId"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := validators.PageParams(r)
		items, total, err := svc.ListForPost(r.Context(), postID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, items, page, total)
	}
}

// CommentsDelete removes a comment; only the author or an admin may.
func CommentsDelete(svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := validators.PathUUID(chi.URLParam(r, "commentId"), "comment id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if err := svc.Delete(ctx, commentID, middleware.UserUUIDFromContext(ctx), middleware.IsAdminFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
