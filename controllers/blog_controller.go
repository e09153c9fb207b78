package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

// BlogController serves the public reading surface: post listing, single
// posts with their comments, and the about page.
type BlogController struct {
	db *gorm.DB
}

// NewBlogController creates a BlogController.
func NewBlogController(db *gorm.DB) *BlogController {
	return &BlogController{db: db}
}

// Index renders every post, newest first.
func (b *BlogController) Index(ctx *gin.Context) {
	var posts []models.Post
	if err := b.db.Preload("Author").Order("id DESC").Find(&posts).Error; err != nil {
		utils.Sugar.Errorf("failed to list posts: %v", err)
		render(ctx, http.StatusInternalServerError, "error.html", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": "Could not load posts.",
		})
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Posts": posts})
}

// About renders the static about page.
func (b *BlogController) About(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about.html", nil)
}

// ShowPost renders a single post with its comments. An unknown id is an
// explicit 404, never a nil dereference.
func (b *BlogController) ShowPost(ctx *gin.Context) {
	post, ok := b.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "post.html", gin.H{"Post": post})
}

// AddComment attaches a comment to a post for the authenticated identity.
// Anonymous visitors are sent to login with a notice; nothing is created.
func (b *BlogController) AddComment(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Flash(ctx, "You need to login or register to comment.")
		ctx.Redirect(http.StatusSeeOther, "/login")
		return
	}

	post, ok := b.loadPost(ctx)
	if !ok {
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("comment")))
	if text == "" {
		render(ctx, http.StatusOK, "post.html", gin.H{
			"Post":  post,
			"Error": "Comment text is required.",
		})
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: user.ID,
		Text:     text,
	}
	if err := b.db.Create(&comment).Error; err != nil {
		utils.Sugar.Errorf("failed to create comment on post %d: %v", post.ID, err)
		render(ctx, http.StatusOK, "post.html", gin.H{
			"Post":  post,
			"Error": "Could not save your comment, please try again.",
		})
		return
	}

	// Redirect back so a refresh re-renders instead of re-submitting the form.
	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/post/%d", post.ID))
}

// loadPost resolves the :id path parameter to a post with author and comments
// preloaded, answering 404 itself when the post does not exist.
func (b *BlogController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id := ctx.Param("id")
	var post models.Post
	err := b.db.Preload("Author").Preload("Comments").Preload("Comments.Author").First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render(ctx, http.StatusNotFound, "error.html", gin.H{
				"Status":  http.StatusNotFound,
				"Message": "Post not found",
			})
			return nil, false
		}
		utils.Sugar.Errorf("failed to load post %s: %v", id, err)
		render(ctx, http.StatusInternalServerError, "error.html", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": "Could not load post.",
		})
		return nil, false
	}
	return &post, true
}
