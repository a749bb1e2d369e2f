// Package feed собирает страницы лент: общей, группы, профиля и подписок.
//
// Assembler не хранит состояния: каждая лента - запрос к хранилищу и
// нарезка результата на страницы.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/metrics"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/paginator"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

type Assembler struct {
	store    storage.Storage
	pageSize int
	log      zerolog.Logger
}

func NewAssembler(store storage.Storage, pageSize int) *Assembler {
	return &Assembler{
		store:    store,
		pageSize: pageSize,
		log:      log.WithComponent("feed"),
	}
}

func (a *Assembler) paginate(kind string, posts []models.Post, page int) Page {
	return pageView(kind, paginator.Paginate(posts, a.pageSize, page))
}

// IndexFeed - все посты сайта
func (a *Assembler) IndexFeed(ctx context.Context, page int) (*Page, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FeedBuildDuration.WithLabelValues(KindIndex))

	posts, err := a.store.ListAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("index feed: %w", err)
	}
	p := a.paginate(KindIndex, posts, page)
	return &p, nil
}

// GroupFeed - посты группы slug
func (a *Assembler) GroupFeed(ctx context.Context, slug string, page int) (*GroupPage, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FeedBuildDuration.WithLabelValues(KindGroup))

	group, err := a.store.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("group feed: %w", err)
	}
	posts, err := a.store.ListPostsByGroup(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("group feed: %w", err)
	}
	return &GroupPage{
		Page:  a.paginate(KindGroup, posts, page),
		Group: groupView(*group),
	}, nil
}

// ProfileFeed - посты автора username. Following показывает, подписан ли
// на автора viewer; для анонимного viewer (nil) всегда false.
func (a *Assembler) ProfileFeed(ctx context.Context, username string, viewer *models.User, page int) (*ProfilePage, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FeedBuildDuration.WithLabelValues(KindProfile))

	author, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("profile feed: %w", err)
	}
	posts, err := a.store.ListPostsByAuthor(ctx, author.ID)
	if err != nil {
		return nil, fmt.Errorf("profile feed: %w", err)
	}

	following := false
	if viewer != nil {
		following, err = a.store.FollowExists(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("profile feed: %w", err)
		}
	}

	return &ProfilePage{
		Page:      a.paginate(KindProfile, posts, page),
		Author:    authorView(*author),
		Following: following,
	}, nil
}

// FollowingFeed - посты авторов, на которых подписан viewer
func (a *Assembler) FollowingFeed(ctx context.Context, viewer *models.User, page int) (*Page, error) {
	if viewer == nil {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Login required.")
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.FeedBuildDuration.WithLabelValues(KindFollowing))

	posts, err := a.store.ListPostsByFollowedAuthors(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("following feed: %w", err)
	}
	p := a.paginate(KindFollowing, posts, page)
	return &p, nil
}

// PostDetail - пост с комментариями
func (a *Assembler) PostDetail(ctx context.Context, id int64) (*PostDetail, error) {
	post, err := a.store.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post detail: %w", err)
	}
	comments, err := a.store.ListCommentsForPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post detail: %w", err)
	}

	detail := &PostDetail{
		Post:     postView(*post),
		Comments: make([]CommentView, 0, len(comments)),
	}
	count := len(comments)
	detail.Post.CommentCount = &count
	if post.Group != nil {
		g := groupView(*post.Group)
		detail.Post.Group = &g
	}
	for _, c := range comments {
		detail.Comments = append(detail.Comments, NewCommentView(c))
	}
	return detail, nil
}

// RenderIndex собирает и сериализует страницу общей ленты. Результат
// не зависит от того, кто смотрит, поэтому его можно кэшировать целиком.
func (a *Assembler) RenderIndex(ctx context.Context, page int) ([]byte, error) {
	p, err := a.IndexFeed(ctx, page)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode index page: %w", err)
	}
	a.log.Debug().Int("page", page).Int("bytes", len(body)).Msg("Index page rendered")
	return body, nil
}
