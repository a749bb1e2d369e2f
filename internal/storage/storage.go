package storage

import (
	"context"

	"github.com/MosinFAM/blog-feed/internal/models"
)

// Storage - интерфейс для всех типов хранилищ (in-memory и PostgreSQL).
//
// Списки постов всегда отсортированы от новых к старым: created_at DESC, id DESC.
// Ненайденные сущности возвращаются как errs.ENOTFOUND, повторная подписка - errs.ECONFLICT.
type Storage interface {
	ListAllPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByGroup(ctx context.Context, slug string) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, userID int64) ([]models.Post, error)
	ListPostsByFollowedAuthors(ctx context.Context, followerID int64) ([]models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsForPost(ctx context.Context, postID int64) ([]models.Comment, error)
	SubscribeToComments(ctx context.Context, postID int64) (<-chan models.Comment, error)

	CreateFollow(ctx context.Context, followerID, authorID int64) error
	DeleteFollow(ctx context.Context, followerID, authorID int64) error
	FollowExists(ctx context.Context, followerID, authorID int64) (bool, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error)
}
