package feed

import (
	"time"

	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/paginator"
	"github.com/MosinFAM/blog-feed/internal/render"
)

// Виды лент
const (
	KindIndex     = "index"
	KindGroup     = "group"
	KindProfile   = "profile"
	KindFollowing = "following"
)

type AuthorView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type GroupView struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// PostView - пост в том виде, в каком его отдают клиенту.
// CommentCount заполняется только на странице поста.
type PostView struct {
	ID           int64      `json:"id"`
	Author       AuthorView `json:"author"`
	Text         string     `json:"text"`
	HTML         string     `json:"html"`
	Group        *GroupView `json:"group,omitempty"`
	Image        *string    `json:"image,omitempty"`
	CommentCount *int       `json:"commentCount,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CommentView struct {
	ID        int64      `json:"id"`
	Author    AuthorView `json:"author"`
	Text      string     `json:"text"`
	HTML      string     `json:"html"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Page - страница ленты
type Page struct {
	Kind        string     `json:"kind"`
	Number      int        `json:"page"`
	TotalPages  int        `json:"totalPages"`
	TotalItems  int        `json:"totalItems"`
	HasNext     bool       `json:"hasNext"`
	HasPrevious bool       `json:"hasPrevious"`
	Posts       []PostView `json:"posts"`
}

type GroupPage struct {
	Page
	Group GroupView `json:"group"`
}

type ProfilePage struct {
	Page
	Author    AuthorView `json:"author"`
	Following bool       `json:"following"`
}

type PostDetail struct {
	Post     PostView      `json:"post"`
	Comments []CommentView `json:"comments"`
}

// Из имён авторов и описаний групп вырезается любая разметка
func authorView(u models.User) AuthorView {
	return AuthorView{ID: u.ID, Username: u.Username, DisplayName: render.Plain(u.Name())}
}

func groupView(g models.Group) GroupView {
	return GroupView{Slug: g.Slug, Title: render.Plain(g.Title), Description: render.Plain(g.Description)}
}

func postView(p models.Post) PostView {
	v := PostView{
		ID:        p.ID,
		Author:    authorView(p.Author),
		Text:      p.Text,
		HTML:      render.Markdown(p.Text),
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
	}
	if p.Group != nil {
		g := groupView(*p.Group)
		g.Description = ""
		v.Group = &g
	}
	return v
}

// NewCommentView готовит комментарий к отдаче клиенту
func NewCommentView(c models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		Author:    authorView(c.Author),
		Text:      c.Text,
		HTML:      render.Markdown(c.Text),
		CreatedAt: c.CreatedAt,
	}
}

func pageView(kind string, p paginator.Page[models.Post]) Page {
	posts := make([]PostView, 0, len(p.Items))
	for _, post := range p.Items {
		posts = append(posts, postView(post))
	}
	return Page{
		Kind:        kind,
		Number:      p.Number,
		TotalPages:  p.TotalPages,
		TotalItems:  p.TotalItems,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
		Posts:       posts,
	}
}
