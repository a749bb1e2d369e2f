package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose"
	"github.com/rs/zerolog"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/log"
	"github.com/MosinFAM/blog-feed/internal/models"
)

const commentsChannel = "comments_channel"

const selectPosts = `
SELECT p.id, p.author_id, u.username, u.display_name,
       p.group_id, g.slug, g.title, g.description,
       p.text, p.image, p.created_at
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN post_groups g ON g.id = p.group_id`

const feedOrder = ` ORDER BY p.created_at DESC, p.id DESC`

// PostgresStorage - хранилище в PostgreSQL
type PostgresStorage struct {
	DB         *sql.DB
	DataSource string
	log        zerolog.Logger
}

// NewPostgresStorage создаёт экземпляр PostgreSQL-хранилища
func NewPostgresStorage(db *sql.DB, dataSource string) *PostgresStorage {
	return &PostgresStorage{
		DB:         db,
		DataSource: dataSource,
		log:        log.WithComponent("storage.postgres"),
	}
}

// InitDB накатывает миграции из каталога dir
func (s *PostgresStorage) InitDB(dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.DB, dir); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", dir, err)
	}
	s.log.Info().Str("dir", dir).Msg("Migrations applied")
	return nil
}

// pqErrorName возвращает имя кода ошибки PostgreSQL или пустую строку
func pqErrorName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name()
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		post      models.Post
		groupID   sql.NullInt64
		groupSlug sql.NullString
		title     sql.NullString
		desc      sql.NullString
		image     sql.NullString
	)
	err := row.Scan(&post.ID, &post.AuthorID, &post.Author.Username, &post.Author.DisplayName,
		&groupID, &groupSlug, &title, &desc,
		&post.Text, &image, &post.CreatedAt)
	if err != nil {
		return models.Post{}, err
	}
	post.Author.ID = post.AuthorID
	if groupID.Valid {
		id := groupID.Int64
		post.GroupID = &id
		post.Group = &models.Group{ID: id, Slug: groupSlug.String, Title: title.String, Description: desc.String}
	}
	if image.Valid {
		img := image.String
		post.Image = &img
	}
	return post, nil
}

func (s *PostgresStorage) queryPosts(ctx context.Context, query string, args ...interface{}) ([]models.Post, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error().Err(err).Msg("Error fetching posts")
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListAllPosts возвращает все посты
func (s *PostgresStorage) ListAllPosts(ctx context.Context) ([]models.Post, error) {
	s.log.Debug().Msg("Fetching all posts from database")
	return s.queryPosts(ctx, selectPosts+feedOrder)
}

// ListPostsByGroup возвращает посты группы, ENOTFOUND для неизвестного slug
func (s *PostgresStorage) ListPostsByGroup(ctx context.Context, slug string) ([]models.Post, error) {
	group, err := s.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.queryPosts(ctx, selectPosts+` WHERE p.group_id = $1`+feedOrder, group.ID)
}

// ListPostsByAuthor возвращает посты автора
func (s *PostgresStorage) ListPostsByAuthor(ctx context.Context, userID int64) ([]models.Post, error) {
	return s.queryPosts(ctx, selectPosts+` WHERE p.author_id = $1`+feedOrder, userID)
}

// ListPostsByFollowedAuthors возвращает посты авторов, на которых подписан followerID
func (s *PostgresStorage) ListPostsByFollowedAuthors(ctx context.Context, followerID int64) ([]models.Post, error) {
	return s.queryPosts(ctx, selectPosts+
		` WHERE p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = $1)`+feedOrder, followerID)
}

// GetPost возвращает пост по ID
func (s *PostgresStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	s.log.Debug().Int64("post_id", id).Msg("Fetching post")
	post, err := scanPost(s.DB.QueryRowContext(ctx, selectPosts+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Errorf(errs.ENOTFOUND, "Post %d not found.", id)
	} else if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// CreatePost добавляет новый пост в БД
func (s *PostgresStorage) CreatePost(ctx context.Context, post *models.Post) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO posts (author_id, group_id, text, image) VALUES ($1, $2, $3, $4) RETURNING id`,
		post.AuthorID, post.GroupID, post.Text, post.Image).Scan(&post.ID)
	if pqErrorName(err) == "foreign_key_violation" {
		return errs.Errorf(errs.EINVALID, "Post author or group does not exist.")
	} else if err != nil {
		s.log.Error().Err(err).Msg("DB Insert Error")
		return fmt.Errorf("insert post: %w", err)
	}

	created, err := s.GetPost(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *created
	s.log.Info().Int64("post_id", post.ID).Int64("author_id", post.AuthorID).Msg("Post created")
	return nil
}

// UpdatePost меняет текст, группу и картинку поста
func (s *PostgresStorage) UpdatePost(ctx context.Context, post *models.Post) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE posts SET text = $1, group_id = $2, image = $3 WHERE id = $4`,
		post.Text, post.GroupID, post.Image, post.ID)
	if pqErrorName(err) == "foreign_key_violation" {
		return errs.Errorf(errs.EINVALID, "Group %d does not exist.", *post.GroupID)
	} else if err != nil {
		return fmt.Errorf("update post %d: %w", post.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", post.ID)
	}

	updated, err := s.GetPost(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *updated
	return nil
}

// DeletePost удаляет пост, комментарии удаляются каскадно
func (s *PostgresStorage) DeletePost(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", id)
	}
	return nil
}

func (s *PostgresStorage) postExists(ctx context.Context, id int64) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check post %d: %w", id, err)
	}
	if !exists {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", id)
	}
	return nil
}

// CreateComment добавляет комментарий и отправляет уведомление в comments_channel
func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.log.Debug().Int64("post_id", comment.PostID).Msg("Adding comment")
	if err := s.postExists(ctx, comment.PostID); err != nil {
		return err
	}
	author, err := s.GetUserByID(ctx, comment.AuthorID)
	if errs.IsNotFound(err) {
		return errs.Errorf(errs.EINVALID, "Author %d does not exist.", comment.AuthorID)
	} else if err != nil {
		return err
	}

	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, author_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		comment.PostID, comment.AuthorID, comment.Text).Scan(&comment.ID, &comment.CreatedAt)
	if pqErrorName(err) == "foreign_key_violation" {
		return errs.Errorf(errs.ENOTFOUND, "Post %d not found.", comment.PostID)
	} else if err != nil {
		s.log.Error().Err(err).Msg("DB Insert Error")
		return fmt.Errorf("insert comment: %w", err)
	}
	comment.Author = *author

	payload, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("encode comment notification: %w", err)
	}
	// Комментарий уже сохранён, ошибка уведомления только логируется.
	if _, err := s.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, commentsChannel, string(payload)); err != nil {
		s.log.Error().Err(err).Msg("Notification error")
	}

	s.log.Info().Int64("comment_id", comment.ID).Int64("post_id", comment.PostID).Msg("Comment added")
	return nil
}

// ListCommentsForPost возвращает комментарии поста от старых к новым
func (s *PostgresStorage) ListCommentsForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT c.id, c.post_id, c.author_id, u.username, u.display_name, c.text, c.created_at
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.post_id = $1
ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author.Username, &c.Author.DisplayName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Author.ID = c.AuthorID
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// SubscribeToComments слушает comments_channel через pq.Listener и отдаёт комментарии поста postID
func (s *PostgresStorage) SubscribeToComments(ctx context.Context, postID int64) (<-chan models.Comment, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	s.log.Debug().Int64("post_id", postID).Msg("Subscribing to comments")
	listener := pq.NewListener(s.DataSource, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.log.Error().Err(err).Msg("Postgres Listener error")
		}
	})
	if err := listener.Listen(commentsChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", commentsChannel, err)
	}

	ch := make(chan models.Comment)
	go func() {
		defer close(ch)
		defer listener.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(90 * time.Second):
				if err := listener.Ping(); err != nil {
					s.log.Error().Err(err).Msg("Postgres Listener ping error")
					return
				}
			case notification := <-listener.Notify:
				// nil приходит после переподключения
				if notification == nil {
					continue
				}
				var comment models.Comment
				if err := json.Unmarshal([]byte(notification.Extra), &comment); err != nil {
					s.log.Error().Err(err).Msg("Error parsing notification payload")
					continue
				}
				if comment.PostID != postID {
					continue
				}
				select {
				case ch <- comment:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// CreateFollow создаёт подписку. Уникальность пары обеспечивает индекс follows_unique_pair.
func (s *PostgresStorage) CreateFollow(ctx context.Context, followerID, authorID int64) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO follows (user_id, author_id) VALUES ($1, $2)`, followerID, authorID)
	switch pqErrorName(err) {
	case "":
	case "unique_violation":
		return errs.Errorf(errs.ECONFLICT, "User %d already follows %d.", followerID, authorID)
	case "foreign_key_violation":
		return errs.Errorf(errs.EINVALID, "User does not exist.")
	case "check_violation":
		return errs.Errorf(errs.EINVALID, "You cannot follow yourself.")
	}
	if err != nil {
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

// DeleteFollow удаляет подписку, отсутствующая подписка - ENOTFOUND
func (s *PostgresStorage) DeleteFollow(ctx context.Context, followerID, authorID int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, followerID, authorID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return errs.Errorf(errs.ENOTFOUND, "User %d does not follow %d.", followerID, authorID)
	}
	return nil
}

// FollowExists проверяет наличие подписки
func (s *PostgresStorage) FollowExists(ctx context.Context, followerID, authorID int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`,
		followerID, authorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

// CreateUser регистрирует пользователя
func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (username, display_name) VALUES ($1, $2) RETURNING id`,
		user.Username, user.DisplayName).Scan(&user.ID)
	if pqErrorName(err) == "unique_violation" {
		return errs.Errorf(errs.ECONFLICT, "Username %q is already taken.", user.Username)
	} else if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.DB.QueryRowContext(ctx, `SELECT id, username, display_name FROM users WHERE `+where, arg).
		Scan(&user.ID, &user.Username, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Errorf(errs.ENOTFOUND, "User %v not found.", arg)
	} else if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByID возвращает пользователя по ID
func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

// GetUserByUsername возвращает пользователя по username
func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

// CreateGroup добавляет группу
func (s *PostgresStorage) CreateGroup(ctx context.Context, group *models.Group) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO post_groups (slug, title, description) VALUES ($1, $2, $3) RETURNING id`,
		group.Slug, group.Title, group.Description).Scan(&group.ID)
	if pqErrorName(err) == "unique_violation" {
		return errs.Errorf(errs.ECONFLICT, "Group slug %q is already taken.", group.Slug)
	} else if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// GetGroupBySlug возвращает группу по slug
func (s *PostgresStorage) GetGroupBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := s.DB.QueryRowContext(ctx, `SELECT id, slug, title, description FROM post_groups WHERE slug = $1`, slug).
		Scan(&group.ID, &group.Slug, &group.Title, &group.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Errorf(errs.ENOTFOUND, "Group %q not found.", slug)
	} else if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}
