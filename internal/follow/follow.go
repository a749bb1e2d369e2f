// Package follow управляет подписками пользователей на авторов.
//
// Follow идемпотентен: повторная подписка и подписка на себя ничего не
// меняют. Unfollow строгий и без подписки возвращает NotFound.
package follow

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/metrics"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

// Исходы для метрики FollowMutations
const (
	outcomeCreated = "created"
	outcomeRemoved = "removed"
	outcomeNoop    = "noop"
	outcomeError   = "error"
)

type Manager struct {
	store storage.Storage
	log   zerolog.Logger
}

func NewManager(store storage.Storage) *Manager {
	return &Manager{
		store: store,
		log:   log.WithComponent("follow"),
	}
}

func (m *Manager) author(ctx context.Context, follower *models.User, username string) (*models.User, error) {
	if follower == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Login required.")
	}
	author, err := m.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve author %q: %w", username, err)
	}
	return author, nil
}

// Follow подписывает follower на автора username и возвращает автора
func (m *Manager) Follow(ctx context.Context, follower *models.User, username string) (*models.User, error) {
	author, err := m.author(ctx, follower, username)
	if err != nil {
		metrics.FollowMutations.WithLabelValues("follow", outcomeError).Inc()
		return nil, err
	}

	if follower.ID == author.ID {
		metrics.FollowMutations.WithLabelValues("follow", outcomeNoop).Inc()
		return author, nil
	}

	exists, err := m.store.FollowExists(ctx, follower.ID, author.ID)
	if err != nil {
		metrics.FollowMutations.WithLabelValues("follow", outcomeError).Inc()
		return nil, fmt.Errorf("check follow: %w", err)
	}
	if exists {
		metrics.FollowMutations.WithLabelValues("follow", outcomeNoop).Inc()
		return author, nil
	}

	if err := m.store.CreateFollow(ctx, follower.ID, author.ID); err != nil {
		// Параллельный запрос успел создать ту же подписку
		if errs.IsConflict(err) {
			metrics.FollowMutations.WithLabelValues("follow", outcomeNoop).Inc()
			return author, nil
		}
		metrics.FollowMutations.WithLabelValues("follow", outcomeError).Inc()
		return nil, fmt.Errorf("create follow: %w", err)
	}

	metrics.FollowMutations.WithLabelValues("follow", outcomeCreated).Inc()
	m.log.Info().Int64("user_id", follower.ID).Int64("author_id", author.ID).Msg("Follow created")
	return author, nil
}

// Unfollow удаляет подписку follower на автора username
func (m *Manager) Unfollow(ctx context.Context, follower *models.User, username string) (*models.User, error) {
	author, err := m.author(ctx, follower, username)
	if err != nil {
		metrics.FollowMutations.WithLabelValues("unfollow", outcomeError).Inc()
		return nil, err
	}

	if err := m.store.DeleteFollow(ctx, follower.ID, author.ID); err != nil {
		metrics.FollowMutations.WithLabelValues("unfollow", outcomeError).Inc()
		return nil, fmt.Errorf("delete follow: %w", err)
	}

	metrics.FollowMutations.WithLabelValues("unfollow", outcomeRemoved).Inc()
	m.log.Info().Int64("user_id", follower.ID).Int64("author_id", author.ID).Msg("Follow removed")
	return author, nil
}
