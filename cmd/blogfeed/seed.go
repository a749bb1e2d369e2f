package main

import (
	"context"
	"fmt"

	"github.com/MosinFAM/blog-feed/internal/config"
	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

// seedStore создаёт пользователей и группы из seed. Повторный запуск
// ничего не меняет: занятые username и slug пропускаются.
func seedStore(ctx context.Context, store storage.Storage, seed config.SeedConfig) error {
	logger := log.WithComponent("seed")

	for _, u := range seed.Users {
		user := &models.User{Username: u.Username, DisplayName: u.DisplayName}
		err := store.CreateUser(ctx, user)
		if errs.IsConflict(err) {
			logger.Debug().Str("username", u.Username).Msg("Seed user already exists")
			continue
		} else if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		logger.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("Seed user created")
	}

	for _, g := range seed.Groups {
		group := &models.Group{Slug: g.Slug, Title: g.Title, Description: g.Description}
		err := store.CreateGroup(ctx, group)
		if errs.IsConflict(err) {
			logger.Debug().Str("slug", g.Slug).Msg("Seed group already exists")
			continue
		} else if err != nil {
			return fmt.Errorf("seed group %s: %w", g.Slug, err)
		}
		logger.Info().Str("slug", group.Slug).Msg("Seed group created")
	}
	return nil
}
