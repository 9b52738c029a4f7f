package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/cfaprep/internal/blog"
	"github.com/pbaille/cfaprep/internal/domain"
)

func (s *Server) listPosts(c *gin.Context) {
	limit, offset := page(c, 20, 100)
	posts, err := s.deps.Store.ListPublishedPosts(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		s.fail(c, "failed to list posts", err)
		return
	}
	if posts == nil {
		posts = []domain.BlogPost{}
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "limit": limit, "offset": offset})
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.deps.Store.GetPublishedPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.fail(c, "post not found", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.deps.Store.ListCategories(c.Request.Context())
	if err != nil {
		s.fail(c, "failed to list categories", err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

// GenerateBlogResponse is the 201 body of a blog generation
type GenerateBlogResponse struct {
	Success bool             `json:"success"`
	Post    *domain.BlogPost `json:"post"`
	JobID   string           `json:"job_id"`
}

func (s *Server) generateBlog(c *gin.Context) {
	var req blog.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := s.deps.Blog.Generate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "blog generation failed", err)
		return
	}
	c.JSON(http.StatusCreated, GenerateBlogResponse{Success: true, Post: res.Post, JobID: res.JobID})
}

func (s *Server) publishPost(c *gin.Context) {
	post, err := s.deps.Store.PublishPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "failed to publish post", err)
		return
	}
	c.JSON(http.StatusOK, post)
}
