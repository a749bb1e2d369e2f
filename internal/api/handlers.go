package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MosinFAM/blog-feed/internal/errs"
	"github.com/MosinFAM/blog-feed/internal/paginator"
	"github.com/MosinFAM/blog-feed/internal/posts"
)

type commentRequest struct {
	Text string `json:"text" form:"text"`
}

func pageParam(c *gin.Context) int {
	return paginator.ParsePage(c.Query("page"))
}

func postID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.EINVALID, "Invalid id format.")
	}
	return id, nil
}

// index отдаёт главную страницу из кэша
func (s *Server) index(c *gin.Context) {
	body, err := s.pages.Get(c.Request.Context(), pageParam(c))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) groupFeed(c *gin.Context) {
	page, err := s.feed.GroupFeed(c.Request.Context(), c.Param("slug"), pageParam(c))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) profileFeed(c *gin.Context) {
	page, err := s.feed.ProfileFeed(c.Request.Context(), c.Param("username"), viewer(c), pageParam(c))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) followingFeed(c *gin.Context) {
	page, err := s.feed.FollowingFeed(c.Request.Context(), viewer(c), pageParam(c))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) postDetail(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		s.returnError(c, err)
		return
	}
	detail, err := s.feed.PostDetail(c.Request.Context(), id)
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// followAuthor и unfollowAuthor после успеха возвращают на профиль автора
func (s *Server) followAuthor(c *gin.Context) {
	author, err := s.follow.Follow(c.Request.Context(), viewer(c), c.Param("username"))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+author.Username)
}

func (s *Server) unfollowAuthor(c *gin.Context) {
	author, err := s.follow.Unfollow(c.Request.Context(), viewer(c), c.Param("username"))
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+author.Username)
}

func (s *Server) createPost(c *gin.Context) {
	var in posts.Input
	if err := c.ShouldBind(&in); err != nil {
		s.returnError(c, errs.Errorf(errs.EINVALID, "Invalid request body."))
		return
	}
	post, err := s.posts.Create(c.Request.Context(), viewer(c), in)
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// editPost: чужой пост не правится, пользователя возвращают на страницу поста
func (s *Server) editPost(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		s.returnError(c, err)
		return
	}
	var in posts.Input
	if err := c.ShouldBind(&in); err != nil {
		s.returnError(c, errs.Errorf(errs.EINVALID, "Invalid request body."))
		return
	}

	post, err := s.posts.Edit(c.Request.Context(), viewer(c), id, in)
	if err != nil {
		if errs.IsUnauthorized(err) && viewer(c) != nil {
			c.Redirect(http.StatusFound, "/posts/"+strconv.FormatInt(id, 10))
			return
		}
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) addComment(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		s.returnError(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		s.returnError(c, errs.Errorf(errs.EINVALID, "Invalid request body."))
		return
	}
	comment, err := s.posts.AddComment(c.Request.Context(), viewer(c), id, req.Text)
	if err != nil {
		s.returnError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) clearCache(c *gin.Context) {
	s.pages.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
