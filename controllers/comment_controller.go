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

// CommentController lets a comment's author (or the administrator) edit or
// delete it. Routes sit behind the LoginRequired guard; ownership is enforced
// here on top of that.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// EditCommentForm renders the edit form pre-populated with the comment text.
func (c *CommentController) EditCommentForm(ctx *gin.Context) {
	comment, post, ok := c.resolve(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "edit-comment.html", gin.H{
		"Post":    post,
		"Comment": comment,
	})
}

// UpdateComment replaces the comment text and returns to the parent post.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	comment, post, ok := c.resolve(ctx)
	if !ok {
		return
	}

	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("comment")))
	if text == "" {
		render(ctx, http.StatusOK, "edit-comment.html", gin.H{
			"Post":    post,
			"Comment": comment,
			"Error":   "Comment text is required.",
		})
		return
	}

	if err := c.db.Model(comment).Update("text", text).Error; err != nil {
		utils.Sugar.Errorf("failed to update comment %d: %v", comment.ID, err)
		render(ctx, http.StatusOK, "edit-comment.html", gin.H{
			"Post":    post,
			"Comment": comment,
			"Error":   "Could not save your comment, please try again.",
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/post/%d", post.ID))
}

// DeleteComment removes the comment and returns to the parent post.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	comment, post, ok := c.resolve(ctx)
	if !ok {
		return
	}

	if err := c.db.Delete(comment).Error; err != nil {
		utils.Sugar.Errorf("failed to delete comment %d: %v", comment.ID, err)
		render(ctx, http.StatusInternalServerError, "error.html", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": "Could not delete the comment.",
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/post/%d", post.ID))
}

// resolve loads the comment and its parent post from the query parameters and
// enforces that the current identity is the comment's author or the admin. It
// answers 404/403 itself when the checks fail.
func (c *CommentController) resolve(ctx *gin.Context) (*models.Comment, *models.Post, bool) {
	postID := ctx.Query("post_id")
	commentID := ctx.Query("comment_id")

	var post models.Post
	if err := c.db.First(&post, "id = ?", postID).Error; err != nil {
		c.notFoundOr500(ctx, err, "Post not found")
		return nil, nil, false
	}

	var comment models.Comment
	if err := c.db.First(&comment, "id = ? AND post_id = ?", commentID, post.ID).Error; err != nil {
		c.notFoundOr500(ctx, err, "Comment not found")
		return nil, nil, false
	}

	user, _ := middleware.CurrentUser(ctx)
	if comment.AuthorID != user.ID && !user.IsAdmin() {
		render(ctx, http.StatusForbidden, "error.html", gin.H{
			"Status":  http.StatusForbidden,
			"Message": "You can only edit or delete your own comments.",
		})
		return nil, nil, false
	}

	return &comment, &post, true
}

func (c *CommentController) notFoundOr500(ctx *gin.Context, err error, message string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		render(ctx, http.StatusNotFound, "error.html", gin.H{
			"Status":  http.StatusNotFound,
			"Message": message,
		})
		return
	}
	utils.Sugar.Errorf("comment lookup failed: %v", err)
	render(ctx, http.StatusInternalServerError, "error.html", gin.H{
		"Status":  http.StatusInternalServerError,
		"Message": "Something went wrong.",
	})
}
