package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

// PostController covers the admin-only post lifecycle: create, edit, delete.
// The routes it serves sit behind the AdminRequired guard.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type postForm struct {
	Title    string `form:"title" binding:"required"`
	Subtitle string `form:"subtitle" binding:"required"`
	ImgURL   string `form:"img_url" binding:"required,url"`
	Body     string `form:"body" binding:"required"`
}

// NewPostForm renders an empty post editor.
func (p *PostController) NewPostForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "make-post.html", gin.H{"IsEdit": false, "Form": map[string]string{}})
}

// CreatePost stores a new post. The display date is fixed here and never
// changes afterwards; titles must be unique.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postForm
	if err := ctx.ShouldBind(&req); err != nil {
		render(ctx, http.StatusOK, "make-post.html", gin.H{
			"IsEdit": false,
			"Error":  "Title, subtitle, a valid image URL, and body are all required.",
			"Form":   formValues(ctx),
		})
		return
	}

	title := strings.TrimSpace(req.Title)
	if taken, err := p.titleTaken(title, 0); err != nil {
		render(ctx, http.StatusOK, "make-post.html", gin.H{"IsEdit": false, "Error": "Something went wrong, please try again.", "Form": formValues(ctx)})
		return
	} else if taken {
		render(ctx, http.StatusOK, "make-post.html", gin.H{
			"IsEdit": false,
			"Error":  "A post with that title already exists.",
			"Form":   formValues(ctx),
		})
		return
	}

	user, _ := middleware.CurrentUser(ctx)
	post := models.Post{
		AuthorID: user.ID,
		Title:    title,
		Subtitle: strings.TrimSpace(req.Subtitle),
		Date:     time.Now().Format(models.DateFormat),
		Body:     utils.Sanitize(req.Body),
		ImgURL:   strings.TrimSpace(req.ImgURL),
	}
	if err := p.db.Create(&post).Error; err != nil {
		render(ctx, http.StatusOK, "make-post.html", gin.H{
			"IsEdit": false,
			"Error":  "A post with that title already exists.",
			"Form":   formValues(ctx),
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

// EditPostForm renders the editor pre-populated with the post's current fields.
func (p *PostController) EditPostForm(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "make-post.html", gin.H{
		"IsEdit": true,
		"Post":   post,
		"Form": map[string]string{
			"title":    post.Title,
			"subtitle": post.Subtitle,
			"img_url":  post.ImgURL,
			"body":     post.Body,
		},
	})
}

// UpdatePost mutates title, subtitle, image URL and body. The creation date is
// immutable and deliberately excluded from the update set.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var req postForm
	if err := ctx.ShouldBind(&req); err != nil {
		render(ctx, http.StatusOK, "make-post.html", gin.H{
			"IsEdit": true,
			"Post":   post,
			"Error":  "Title, subtitle, a valid image URL, and body are all required.",
			"Form":   formValues(ctx),
		})
		return
	}

	title := strings.TrimSpace(req.Title)
	if taken, err := p.titleTaken(title, post.ID); err != nil || taken {
		msg := "Something went wrong, please try again."
		if taken {
			msg = "A post with that title already exists."
		}
		render(ctx, http.StatusOK, "make-post.html", gin.H{"IsEdit": true, "Post": post, "Error": msg, "Form": formValues(ctx)})
		return
	}

	updates := map[string]interface{}{
		"title":    title,
		"subtitle": strings.TrimSpace(req.Subtitle),
		"img_url":  strings.TrimSpace(req.ImgURL),
		"body":     utils.Sanitize(req.Body),
	}
	if err := p.db.Model(post).Updates(updates).Error; err != nil {
		render(ctx, http.StatusOK, "make-post.html", gin.H{
			"IsEdit": true,
			"Post":   post,
			"Error":  "Could not save the post, please try again.",
			"Form":   formValues(ctx),
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/post/%d", post.ID))
}

// DeletePost removes a post together with its comments in one transaction, so
// no comment is ever left pointing at a missing post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.Sugar.Errorf("failed to delete post %d: %v", post.ID, err)
		render(ctx, http.StatusInternalServerError, "error.html", gin.H{
			"Status":  http.StatusInternalServerError,
			"Message": "Could not delete the post.",
		})
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, "id = ?", id).Error; err != nil {
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

// titleTaken reports whether another post already uses the title.
func (p *PostController) titleTaken(title string, excludeID uint) (bool, error) {
	var count int64
	q := p.db.Model(&models.Post{}).Where("title = ?", title)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// formValues echoes submitted fields back into a re-rendered form.
func formValues(ctx *gin.Context) map[string]string {
	return map[string]string{
		"title":    ctx.PostForm("title"),
		"subtitle": ctx.PostForm("subtitle"),
		"img_url":  ctx.PostForm("img_url"),
		"body":     ctx.PostForm("body"),
	}
}
