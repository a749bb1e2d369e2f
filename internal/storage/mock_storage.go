package storage

import (
	"context"

	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ Storage = (*MockStorage)(nil)

func postsArg(args mock.Arguments) []models.Post {
	if v := args.Get(0); v != nil {
		return v.([]models.Post)
	}
	return nil
}

func (m *MockStorage) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	return postsArg(args), args.Error(1)
}

func (m *MockStorage) ListPostsByGroup(ctx context.Context, slug string) ([]models.Post, error) {
	args := m.Called(ctx, slug)
	return postsArg(args), args.Error(1)
}

func (m *MockStorage) ListPostsByAuthor(ctx context.Context, userID int64) ([]models.Post, error) {
	args := m.Called(ctx, userID)
	return postsArg(args), args.Error(1)
}

func (m *MockStorage) ListPostsByFollowedAuthors(ctx context.Context, followerID int64) ([]models.Post, error) {
	args := m.Called(ctx, followerID)
	return postsArg(args), args.Error(1)
}

func (m *MockStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockStorage) UpdatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockStorage) DeletePost(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockStorage) ListCommentsForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *MockStorage) SubscribeToComments(ctx context.Context, postID int64) (<-chan models.Comment, error) {
	args := m.Called(ctx, postID)
	ch, _ := args.Get(0).(chan models.Comment)
	return ch, args.Error(1)
}

func (m *MockStorage) CreateFollow(ctx context.Context, followerID, authorID int64) error {
	args := m.Called(ctx, followerID, authorID)
	return args.Error(0)
}

func (m *MockStorage) DeleteFollow(ctx context.Context, followerID, authorID int64) error {
	args := m.Called(ctx, followerID, authorID)
	return args.Error(0)
}

func (m *MockStorage) FollowExists(ctx context.Context, followerID, authorID int64) (bool, error) {
	args := m.Called(ctx, followerID, authorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockStorage) CreateGroup(ctx context.Context, group *models.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockStorage) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	args := m.Called(ctx, slug)
	group, _ := args.Get(0).(*models.Group)
	return group, args.Error(1)
}
