// Package api - HTTP-интерфейс блога на gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/cache"
	"github.com/MosinFAM/blog-feed/internal/config"
	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/feed"
	"github.com/MosinFAM/blog-feed/internal/follow"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/metrics"
	"github.com/MosinFAM/blog-feed/internal/posts"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

type Server struct {
	cfg      config.Config
	store    storage.Storage
	feed     *feed.Assembler
	pages    *cache.PageCache
	follow   *follow.Manager
	posts    *posts.Service
	engine   *gin.Engine
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type Option func(*serverOptions)

type serverOptions struct {
	cacheOpts []cache.Option
}

// WithCacheOptions передаёт настройки кэшу главной страницы
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *serverOptions) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

func NewServer(cfg config.Config, store storage.Storage, opts ...Option) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	assembler := feed.NewAssembler(store, cfg.PageSize)
	s := &Server{
		cfg:    cfg,
		store:  store,
		feed:   assembler,
		pages:  cache.New(cfg.CacheTTL, assembler.RenderIndex, o.cacheOpts...),
		follow: follow.NewManager(store),
		posts:  posts.NewService(store),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log.WithComponent("api"),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(), s.identity())

	r.GET("/", s.index)
	r.GET("/group/:slug", s.groupFeed)
	r.GET("/profile/:username", s.profileFeed)
	r.GET("/posts/:id", s.postDetail)
	r.GET("/posts/:id/comments/ws", s.commentStream)
	r.GET("/follow", s.followingFeed)

	r.POST("/profile/:username/follow", s.followAuthor)
	r.POST("/profile/:username/unfollow", s.unfollowAuthor)
	r.POST("/create", s.createPost)
	r.POST("/posts/:id/edit", s.editPost)
	r.POST("/posts/:id/comment", s.addComment)

	r.POST("/admin/cache/clear", s.requireAdmin(), s.clearCache)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", s.healthz)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: errs.ENOTFOUND, Message: "Page not found."})
	})
	return r
}

// Handler - движок gin, обёрнутый в CORS
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", HeaderRequestID},
	})
	return c.Handler(s.engine)
}

// Run слушает cfg.Addr до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("Server is running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
