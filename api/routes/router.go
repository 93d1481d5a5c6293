package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aferreira-dev/socialio-backend/api/controllers"
	"github.com/aferreira-dev/socialio-backend/api/middleware"
	"github.com/aferreira-dev/socialio-backend/internal/auth"
	"github.com/aferreira-dev/socialio-backend/internal/comments"
	"github.com/aferreira-dev/socialio-backend/internal/feed"
	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/internal/users"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	usersService users.Service,
	postsService posts.Service,
	commentsService comments.Service,
	followsService follows.Service,
	feedService feed.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))
		r.Post("/register", controllers.AuthRegister(authService, logg))
		r.Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UsersMe(usersService, logg))
			r.Patch("/me", controllers.UsersUpdateMe(usersService, logg))
			r.Get("/search", controllers.UsersSearch(usersService, logg))
			r.Get("/{userId}", controllers.UsersGet(usersService, followsService, logg))
			r.Get("/{userId}/timeline", controllers.FeedAuthorTimeline(feedService, logg))
			r.Post("/{userId}/follow", controllers.FollowsCreate(followsService, logg))
			r.Delete("/{userId}/follow", controllers.FollowsDelete(followsService, logg))
			r.Get("/{userId}/followers", controllers.FollowsListFollowers(followsService, logg))
			r.Get("/{userId}/following", controllers.FollowsListFollowing(followsService, logg))
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", controllers.PostsCreate(postsService, logg))
			r.Get("/", controllers.PostsList(postsService, logg))
			r.Get("/{postId}", controllers.PostsGet(postsService, logg))
			r.Delete("/{postId}", controllers.PostsDelete(postsService, logg))
			r.Post("/{postId}/like", controllers.PostsLike(postsService, logg))
			r.Delete("/{postId}/like", controllers.PostsUnlike(postsService, logg))
			r.Get("/{postId}/likes/count", controllers.PostsLikeCount(postsService, logg))
			r.Post("/{postId}/comments", controllers.CommentsAdd(commentsService, logg))
			r.Get("/{postId}/comments", controllers.CommentsList(commentsService, logg))
		})

		r.Delete("/comments/{commentId}", controllers.CommentsDelete(commentsService, logg))

		r.Get("/feed", controllers.FeedGet(feedService, logg))
	})

	return r
}
