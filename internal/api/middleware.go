package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/metrics"
	"github.com/MosinFAM/blog-feed/internal/models"
)

const (
	HeaderRequestID = "X-Request-ID"

	ctxRequestID = "request_id"
	ctxViewer    = "viewer"
	ctxClaims    = "claims"
)

// requestID берёт X-Request-ID клиента или генерирует новый
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func requestLogger(c *gin.Context) *zerolog.Logger {
	l := log.WithRequestID(c.GetString(ctxRequestID))
	return &l
}

// accessLog пишет строку лога и метрики на каждый запрос
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.NewTimer()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		timer.ObserveDuration(metrics.APIRequestDuration.WithLabelValues(route))

		requestLogger(c).Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", timer.Duration()).
			Msg("Request handled")
	}
}

// identity определяет пользователя по bearer-токену. Запрос без токена
// анонимный, с неверным токеном - 401.
func (s *Server) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		claims, err := ParseToken(s.cfg.Auth.Secret, raw)
		if err != nil {
			s.returnError(c, errs.Errorf(errs.EUNAUTHORIZED, "Invalid token."))
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			s.returnError(c, errs.Errorf(errs.EUNAUTHORIZED, "Invalid token."))
			return
		}
		user, err := s.store.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errs.IsNotFound(err) {
				err = errs.Errorf(errs.EUNAUTHORIZED, "Unknown user.")
			}
			s.returnError(c, err)
			return
		}

		c.Set(ctxViewer, user)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// requireAdmin пропускает только токены с admin
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get(ctxClaims)
		if !ok || !claims.(*Claims).Admin {
			s.returnError(c, errs.Errorf(errs.EUNAUTHORIZED, "Admin access required."))
			return
		}
		c.Next()
	}
}

// viewer - текущий пользователь или nil для анонимного запроса
func viewer(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxViewer); ok {
		return v.(*models.User)
	}
	return nil
}

