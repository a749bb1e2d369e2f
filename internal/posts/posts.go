// Package posts - создание и правка постов и комментариев.
package posts

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

const CommentMaxLength = 2000

var imageExtensions = map[string]bool{
	".gif":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Input - поля поста, которые задаёт пользователь
type Input struct {
	Text      string `json:"text" form:"text"`
	GroupSlug string `json:"group" form:"group"`
	Image     string `json:"image" form:"image"`
}

type Service struct {
	store storage.Storage
	log   zerolog.Logger
}

func NewService(store storage.Storage) *Service {
	return &Service{
		store: store,
		log:   log.WithComponent("posts"),
	}
}

// Create публикует пост от имени viewer
func (s *Service) Create(ctx context.Context, viewer *models.User, in Input) (*models.Post, error) {
	if viewer == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Login required.")
	}

	post := &models.Post{AuthorID: viewer.ID}
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Edit меняет текст, группу и картинку поста. Править может только автор.
func (s *Service) Edit(ctx context.Context, viewer *models.User, id int64, in Input) (*models.Post, error) {
	if viewer == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Login required.")
	}

	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("edit post: %w", err)
	}
	if post.AuthorID != viewer.ID {
		s.log.Warn().Int64("post_id", id).Int64("user_id", viewer.ID).Msg("Edit rejected, user is not the author")
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Only the author can edit this post.")
	}

	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("edit post: %w", err)
	}
	return post, nil
}

// AddComment добавляет комментарий viewer к посту postID
func (s *Service) AddComment(ctx context.Context, viewer *models.User, postID int64, text string) (*models.Comment, error) {
	if viewer == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Login required.")
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	comment := &models.Comment{PostID: postID, AuthorID: viewer.ID, Text: strings.TrimSpace(text)}
	if err := runCommentValFns(comment, commentNotEmpty, commentMaxLength); err != nil {
		return nil, err
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	comment.Author = *viewer
	return comment, nil
}

// apply проверяет in и переносит его в post. Автор не меняется.
func (s *Service) apply(ctx context.Context, post *models.Post, in Input) error {
	post.Text = strings.TrimSpace(in.Text)
	post.Image = nil
	if in.Image != "" {
		image := in.Image
		post.Image = &image
	}

	if err := runPostValFns(post, textNotEmpty, imageExtensionValid); err != nil {
		return err
	}

	post.GroupID = nil
	post.Group = nil
	if in.GroupSlug == "" {
		return nil
	}
	group, err := s.store.GetGroupBySlug(ctx, in.GroupSlug)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.Errorf(errs.EINVALID, "Group %q does not exist.", in.GroupSlug)
		}
		return fmt.Errorf("resolve group: %w", err)
	}
	post.GroupID = &group.ID
	return nil
}

type postValFn = func(post *models.Post) error

func runPostValFns(post *models.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

func textNotEmpty(post *models.Post) error {
	if post.Text == "" {
		return errs.Errorf(errs.EINVALID, "Post text must not be empty.")
	}
	return nil
}

func imageExtensionValid(post *models.Post) error {
	if post.Image == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(*post.Image))
	if !imageExtensions[ext] {
		return errs.Errorf(errs.EINVALID, "File %s is not an image.", *post.Image)
	}
	return nil
}

type commentValFn = func(comment *models.Comment) error

func runCommentValFns(comment *models.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

func commentNotEmpty(comment *models.Comment) error {
	if comment.Text == "" {
		return errs.Errorf(errs.EINVALID, "Comment text must not be empty.")
	}
	return nil
}

func commentMaxLength(comment *models.Comment) error {
	if utf8.RuneCountInString(comment.Text) > CommentMaxLength {
		return errs.Errorf(errs.EINVALID, "Comment max length is %d characters.", CommentMaxLength)
	}
	return nil
}
