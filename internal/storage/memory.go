package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/models"
)

type followKey struct {
	userID   int64
	authorID int64
}

// MemoryStorage - хранилище в памяти
type MemoryStorage struct {
	posts         map[int64]models.Post
	comments      map[int64][]models.Comment
	follows       map[followKey]models.Follow
	users         map[int64]models.User
	usernames     map[string]int64
	groups        map[int64]models.Group
	slugs         map[string]int64
	subscriptions map[int64][]chan models.Comment
	lastID        int64
	now           func() time.Time
	log           zerolog.Logger
	mu            sync.RWMutex
}

// MemoryOption настраивает MemoryStorage
type MemoryOption func(*MemoryStorage)

// WithClock подменяет источник времени для created_at
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

// NewMemoryStorage создает новое in-memory хранилище
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	s := &MemoryStorage{
		posts:         make(map[int64]models.Post),
		comments:      make(map[int64][]models.Comment),
		follows:       make(map[followKey]models.Follow),
		users:         make(map[int64]models.User),
		usernames:     make(map[string]int64),
		groups:        make(map[int64]models.Group),
		slugs:         make(map[string]int64),
		subscriptions: make(map[int64][]chan models.Comment),
		now:           time.Now,
		log:           log.WithComponent("storage.memory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID выдаёт следующий идентификатор, вызывается под s.mu.Lock
func (s *MemoryStorage) nextID() int64 {
	s.lastID++
	return s.lastID
}

// hydrate подставляет автора и группу, вызывается под блокировкой
func (s *MemoryStorage) hydrate(post models.Post) models.Post {
	post.Author = s.users[post.AuthorID]
	post.Group = nil
	if post.GroupID != nil {
		if g, ok := s.groups[*post.GroupID]; ok {
			post.Group = &g
		}
	}
	return post
}

// collect отбирает посты по условию и сортирует их для ленты
func (s *MemoryStorage) collect(match func(models.Post) bool) []models.Post {
	result := []models.Post{}
	for _, post := range s.posts {
		if match(post) {
			result = append(result, s.hydrate(post))
		}
	}
	slices.SortFunc(result, func(a, b models.Post) int {
		switch {
		case a.Newer(b):
			return -1
		case b.Newer(a):
			return 1
		}
		return 0
	})
	return result
}

// ListAllPosts возвращает все посты
func (s *MemoryStorage) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug().Msg("Fetching all posts from memory")
	return s.collect(func(models.Post) bool { return true }), nil
}

// ListPostsByGroup возвращает посты группы по её slug
func (s *MemoryStorage) ListPostsByGroup(ctx context.Context, slug string) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug().Str("slug", slug).Msg("Fetching group posts")
	groupID, exists := s.slugs[slug]
	if !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "Group %q not found.", slug)
	}
	return s.collect(func(p models.Post) bool {
		return p.GroupID != nil && *p.GroupID == groupID
	}), nil
}

// ListPostsByAuthor возвращает посты автора
func (s *MemoryStorage) ListPostsByAuthor(ctx context.Context, userID int64) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug().Int64("author_id", userID).Msg("Fetching author posts")
	return s.collect(func(p models.Post) bool { return p.AuthorID == userID }), nil
}

// ListPostsByFollowedAuthors возвращает посты всех авторов, на которых подписан followerID
func (s *MemoryStorage) ListPostsByFollowedAuthors(ctx context.Context, followerID int64) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug().Int64("follower_id", followerID).Msg("Fetching posts of followed authors")
	return s.collect(func(p models.Post) bool {
		_, follows := s.follows[followKey{userID: followerID, authorID: p.AuthorID}]
		return follows
	}), nil
}

// GetPost возвращает пост по ID
func (s *MemoryStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug().Int64("post_id", id).Msg("Fetching post")
	post, exists := s.posts[id]
	if !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "Post %d not found.", id)
	}
	post = s.hydrate(post)
	return &post, nil
}

// checkRefs проверяет, что автор и группа поста существуют, вызывается под блокировкой
func (s *MemoryStorage) checkRefs(post *models.Post) error {
	if _, ok := s.users[post.AuthorID]; !ok {
		return errs.Errorf(errs.EINVALID, "Author %d does not exist.", post.AuthorID)
	}
	if post.GroupID != nil {
		if _, ok := s.groups[*post.GroupID]; !ok {
			return errs.Errorf(errs.EINVALID, "Group %d does not exist.", *post.GroupID)
		}
	}
	return nil
}

// CreatePost добавляет новый пост, заполняя ID и CreatedAt
func (s *MemoryStorage) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(post); err != nil {
		return err
	}
	post.ID = s.nextID()
	post.CreatedAt = s.now()
	s.posts[post.ID] = *post
	*post = s.hydrate(*post)

	s.log.Info().Int64("post_id", post.ID).Int64("author_id", post.AuthorID).Msg("Post created")
	return nil
}

// UpdatePost меняет текст, группу и картинку поста. Автор и дата создания не меняются.
func (s *MemoryStorage) UpdatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.posts[post.ID]
	if !exists {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", post.ID)
	}
	post.AuthorID = existing.AuthorID
	post.CreatedAt = existing.CreatedAt
	if err := s.checkRefs(post); err != nil {
		return err
	}

	existing.Text = post.Text
	existing.GroupID = post.GroupID
	existing.Image = post.Image
	s.posts[post.ID] = existing
	*post = s.hydrate(existing)

	s.log.Info().Int64("post_id", post.ID).Msg("Post updated")
	return nil
}

// DeletePost удаляет пост вместе с комментариями
func (s *MemoryStorage) DeletePost(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[id]; !exists {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", id)
	}
	delete(s.posts, id)
	delete(s.comments, id)

	s.log.Info().Int64("post_id", id).Msg("Post deleted")
	return nil
}

// CreateComment добавляет комментарий и уведомляет подписчиков поста
func (s *MemoryStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[comment.PostID]; !exists {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", comment.PostID)
	}
	author, exists := s.users[comment.AuthorID]
	if !exists {
		return errs.Errorf(errs.EINVALID, "Author %d does not exist.", comment.AuthorID)
	}

	comment.ID = s.nextID()
	comment.CreatedAt = s.now()
	comment.Author = author
	s.comments[comment.PostID] = append(s.comments[comment.PostID], *comment)

	// Медленный подписчик теряет уведомление, но не блокирует запись.
	for _, ch := range s.subscriptions[comment.PostID] {
		select {
		case ch <- *comment:
		default:
			s.log.Warn().Int64("post_id", comment.PostID).Msg("Comment subscriber is too slow, dropping notification")
		}
	}

	s.log.Info().Int64("comment_id", comment.ID).Int64("post_id", comment.PostID).Msg("Comment added")
	return nil
}

// ListCommentsForPost возвращает комментарии к посту от старых к новым
func (s *MemoryStorage) ListCommentsForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.posts[postID]; !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "Post %d not found.", postID)
	}
	result := make([]models.Comment, 0, len(s.comments[postID]))
	for _, c := range s.comments[postID] {
		c.Author = s.users[c.AuthorID]
		result = append(result, c)
	}
	return result, nil
}

// SubscribeToComments подписка на новые комментарии поста. Канал закрывается после отмены ctx.
func (s *MemoryStorage) SubscribeToComments(ctx context.Context, postID int64) (<-chan models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[postID]; !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "Post %d not found.", postID)
	}

	s.log.Debug().Int64("post_id", postID).Msg("Subscribing to comments")
	ch := make(chan models.Comment, 16)
	s.subscriptions[postID] = append(s.subscriptions[postID], ch)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		subscribers := s.subscriptions[postID]
		for i, sub := range subscribers {
			if sub == ch {
				s.subscriptions[postID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(s.subscriptions[postID]) == 0 {
			delete(s.subscriptions, postID)
		}
		close(ch)
	}()

	return ch, nil
}

// CreateFollow создаёт подписку. Проверка и вставка выполняются под одной блокировкой.
func (s *MemoryStorage) CreateFollow(ctx context.Context, followerID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey{userID: followerID, authorID: authorID}
	if _, exists := s.follows[key]; exists {
		return errs.Errorf(errs.ECONFLICT, "User %d already follows %d.", followerID, authorID)
	}
	if _, ok := s.users[followerID]; !ok {
		return errs.Errorf(errs.EINVALID, "User %d does not exist.", followerID)
	}
	if _, ok := s.users[authorID]; !ok {
		return errs.Errorf(errs.EINVALID, "User %d does not exist.", authorID)
	}
	s.follows[key] = models.Follow{
		ID:        s.nextID(),
		UserID:    followerID,
		AuthorID:  authorID,
		CreatedAt: s.now(),
	}
	return nil
}

// DeleteFollow удаляет подписку, отсутствующая подписка - ENOTFOUND
func (s *MemoryStorage) DeleteFollow(ctx context.Context, followerID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := followKey{userID: followerID, authorID: authorID}
	if _, exists := s.follows[key]; !exists {
		return errs.Errorf(errs.ENOTFOUND, "User %d does not follow %d.", followerID, authorID)
	}
	delete(s.follows, key)
	return nil
}

// FollowExists проверяет наличие подписки
func (s *MemoryStorage) FollowExists(ctx context.Context, followerID, authorID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.follows[followKey{userID: followerID, authorID: authorID}]
	return exists, nil
}

// CreateUser регистрирует пользователя с уникальным username
func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(user.Username) == "" {
		return errs.Errorf(errs.EINVALID, "Username is required.")
	}
	if _, taken := s.usernames[user.Username]; taken {
		return errs.Errorf(errs.ECONFLICT, "Username %q is already taken.", user.Username)
	}
	user.ID = s.nextID()
	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	return nil
}

// GetUserByID возвращает пользователя по ID
func (s *MemoryStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "User %d not found.", id)
	}
	return &user, nil
}

// GetUserByUsername возвращает пользователя по username
func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.usernames[username]
	if !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "User %q not found.", username)
	}
	user := s.users[id]
	return &user, nil
}

// CreateGroup добавляет группу с уникальным slug
func (s *MemoryStorage) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(group.Slug) == "" {
		return errs.Errorf(errs.EINVALID, "Group slug is required.")
	}
	if _, taken := s.slugs[group.Slug]; taken {
		return errs.Errorf(errs.ECONFLICT, "Group slug %q is already taken.", group.Slug)
	}
	group.ID = s.nextID()
	s.groups[group.ID] = *group
	s.slugs[group.Slug] = group.ID
	return nil
}

// GetGroupBySlug возвращает группу по slug
func (s *MemoryStorage) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.slugs[slug]
	if !exists {
		return nil, errs.Errorf(errs.ENOTFOUND, "Group %q not found.", slug)
	}
	group := s.groups[id]
	return &group, nil
}
