package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MosinFAM/blog-feed/internal/config"
	"github.com/MosinFAM/blog-feed/internal/feed"
	"github.com/MosinFAM/blog-feed/internal/models"
	"github.com/MosinFAM/blog-feed/internal/posts"
	"github.com/MosinFAM/blog-feed/internal/storage"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server *Server
	store  *storage.MemoryStorage
	users  map[string]*models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.Secret = testSecret
	store := storage.NewMemoryStorage()

	env := &testEnv{store: store, users: make(map[string]*models.User)}
	for _, name := range []string{"anna", "boris", "vera"} {
		u := &models.User{Username: name}
		require.NoError(t, store.CreateUser(context.Background(), u))
		env.users[name] = u
	}
	require.NoError(t, store.CreateGroup(context.Background(), &models.Group{Slug: "cats", Title: "Cats"}))
	env.server = NewServer(cfg, store)
	return env
}

func (e *testEnv) token(t *testing.T, username string, admin bool) string {
	t.Helper()
	token, err := IssueToken(testSecret, e.users[username].ID, admin, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) post(t *testing.T, username, text string) *models.Post {
	t.Helper()
	post := &models.Post{AuthorID: e.users[username].ID, Text: text}
	require.NoError(t, e.store.CreatePost(context.Background(), post))
	return post
}

// do выполняет запрос; token пустой - анонимный запрос
func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestIndex_CachedUntilClear(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "anna", "first")

	w := env.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[feed.Page](t, w).Posts, 1)

	env.post(t, "anna", "second")
	w = env.do(http.MethodGet, "/", "", "")
	assert.Len(t, decode[feed.Page](t, w).Posts, 1)

	w = env.do(http.MethodPost, "/admin/cache/clear", env.token(t, "vera", true), "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/", "", "")
	assert.Len(t, decode[feed.Page](t, w).Posts, 2)
}

func TestIndex_DeletionHiddenUntilClear(t *testing.T) {
	env := newTestEnv(t)
	first := env.post(t, "anna", "first")
	second := env.post(t, "boris", "second")

	before := env.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, before.Code)
	require.Len(t, decode[feed.Page](t, before).Posts, 2)

	require.NoError(t, env.store.DeletePost(context.Background(), first.ID))
	require.NoError(t, env.store.DeletePost(context.Background(), second.ID))

	cached := env.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, cached.Code)
	assert.Equal(t, before.Body.Bytes(), cached.Body.Bytes())

	require.Equal(t, http.StatusNoContent, env.do(http.MethodPost, "/admin/cache/clear", env.token(t, "vera", true), "").Code)

	fresh := env.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, fresh.Code)
	page := decode[feed.Page](t, fresh)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.TotalPages)
}

func TestIndex_HugePageNumber(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "anna", "first")

	w := env.do(http.MethodGet, "/?page=922337203685477582", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	page := decode[feed.Page](t, w)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 922337203685477582, page.Number)
	assert.False(t, page.HasNext)
}

func TestIndex_BadPageParam(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "anna", "first")

	w := env.do(http.MethodGet, "/?page=abc", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	page := decode[feed.Page](t, w)
	assert.Equal(t, 1, page.Number)
	assert.Len(t, page.Posts, 1)
}

func TestClearCache_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/admin/cache/clear", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/admin/cache/clear", env.token(t, "anna", false), "").Code)
}

func TestGroupFeed(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.server.posts.Create(context.Background(), env.users["anna"], posts.Input{Text: "meow", GroupSlug: "cats"})
	require.NoError(t, err)
	env.post(t, "anna", "untagged")

	w := env.do(http.MethodGet, "/group/cats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[feed.GroupPage](t, w)
	assert.Equal(t, "Cats", page.Group.Title)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "meow", page.Posts[0].Text)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/group/dogs", "", "").Code)
}

func TestFollow_RedirectsToProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "anna", false)

	w := env.do(http.MethodPost, "/profile/boris/follow", token, "")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/boris", w.Header().Get("Location"))

	w = env.do(http.MethodGet, "/profile/boris", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[feed.ProfilePage](t, w).Following)

	w = env.do(http.MethodGet, "/profile/boris", "", "")
	assert.False(t, decode[feed.ProfilePage](t, w).Following)
}

func TestFollow_Anonymous(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/profile/boris/follow", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnfollow(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "anna", false)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/profile/boris/unfollow", token, "").Code)

	env.do(http.MethodPost, "/profile/boris/follow", token, "")
	w := env.do(http.MethodPost, "/profile/boris/unfollow", token, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/boris", w.Header().Get("Location"))
}

func TestFollowingFeed(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, "boris", "from boris")
	env.post(t, "vera", "from vera")
	token := env.token(t, "anna", false)
	env.do(http.MethodPost, "/profile/boris/follow", token, "")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/follow", "", "").Code)

	w := env.do(http.MethodGet, "/follow", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[feed.Page](t, w)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "from boris", page.Posts[0].Text)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "anna", false)

	w := env.do(http.MethodPost, "/create", token, `{"text":"hello","group":"cats"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[models.Post](t, w)
	assert.Equal(t, env.users["anna"].ID, post.AuthorID)
	assert.Equal(t, "hello", post.Text)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/create", "", `{"text":"hello"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/create", token, `{"text":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/create", token, `{"text":"x","image":"a.exe"}`).Code)
}

func TestCreatePost_Form(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{"text": {"from a form"}}
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+env.token(t, "anna", false))
	w := httptest.NewRecorder()

	env.server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "from a form", decode[models.Post](t, w).Text)
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	post := env.post(t, "anna", "draft")
	path := "/posts/" + strconv.FormatInt(post.ID, 10) + "/edit"

	w := env.do(http.MethodPost, path, env.token(t, "anna", false), `{"text":"final"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final", decode[models.Post](t, w).Text)

	// Чужой пост: возврат на страницу поста без изменений
	w = env.do(http.MethodPost, path, env.token(t, "boris", false), `{"text":"hijack"}`)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/posts/"+strconv.FormatInt(post.ID, 10), w.Header().Get("Location"))

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, path, "", `{"text":"anon"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/posts/999/edit", env.token(t, "anna", false), `{"text":"x"}`).Code)
}

func TestPostDetail_WithComment(t *testing.T) {
	env := newTestEnv(t)
	post := env.post(t, "anna", "post")
	path := "/posts/" + strconv.FormatInt(post.ID, 10)

	w := env.do(http.MethodPost, path+"/comment", env.token(t, "boris", false), `{"text":"nice"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[feed.PostDetail](t, w)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "boris", detail.Comments[0].Author.Username)
	assert.Equal(t, 1, *detail.Post.CommentCount)
}

func TestPostDetail_BadID(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/posts/abc", "", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/posts/42", "", "").Code)
}

func TestIdentity_InvalidToken(t *testing.T) {
	env := newTestEnv(t)
	forged, err := IssueToken("other-secret", env.users["anna"].ID, true, time.Hour)
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/follow", forged, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, w).Code)
}

func TestIdentity_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	token, err := IssueToken(testSecret, 9999, false, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/follow", token, "").Code)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestNoRoute(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/nowhere", "", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodGet, "/", "", "")

	w := env.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "blogfeed_page_cache_requests_total")
}

func TestCommentStream(t *testing.T) {
	env := newTestEnv(t)
	post := env.post(t, "anna", "live")
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/posts/" + strconv.FormatInt(post.ID, 10) + "/comments/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, env.store.CreateComment(context.Background(), &models.Comment{
		PostID: post.ID, AuthorID: env.users["boris"].ID, Text: "streamed",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got feed.CommentView
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "streamed", got.Text)
	assert.Equal(t, "boris", got.Author.Username)
}

func TestCommentStream_UnknownPost(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/posts/77/comments/ws", "", "").Code)
}

func TestErrorStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrorStatusCode("not_found"))
	assert.Equal(t, http.StatusUnauthorized, ErrorStatusCode("unauthorized"))
	assert.Equal(t, http.StatusBadRequest, ErrorStatusCode("invalid"))
	assert.Equal(t, http.StatusConflict, ErrorStatusCode("conflict"))
	assert.Equal(t, http.StatusInternalServerError, ErrorStatusCode("internal"))
	assert.Equal(t, http.StatusInternalServerError, ErrorStatusCode("whatever"))
}
