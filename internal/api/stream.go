package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MosinFAM/blog-feed/internal/feed"
)

const streamWriteTimeout = 10 * time.Second

// commentStream отправляет по websocket новые комментарии к посту,
// пока клиент не закроет соединение
func (s *Server) commentStream(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		s.returnError(c, err)
		return
	}
	if _, err := s.store.GetPost(c.Request.Context(), id); err != nil {
		s.returnError(c, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Подписка оформляется до ответа на handshake, поэтому клиент получит
	// все комментарии, добавленные после установки соединения
	comments, err := s.store.SubscribeToComments(ctx, id)
	if err != nil {
		s.returnError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		requestLogger(c).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Читаем входящие кадры только чтобы заметить закрытие соединения
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case comment, ok := <-comments:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(feed.NewCommentView(comment)); err != nil {
				requestLogger(c).Debug().Err(err).Msg("Comment stream closed")
				return
			}
		}
	}
}
