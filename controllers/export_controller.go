package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/config"
	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

// exportDeniedMessage matches the contract the JSON consumers already test against.
const exportDeniedMessage = "Sorry, only admins can access this. Make sure you have the correct admin api_key"

// ExportController serves the read-only JSON export endpoints. They authorize
// with a rotatable shared secret supplied as the guest-api-key query parameter,
// independent of the cookie session mechanism.
type ExportController struct {
	db *gorm.DB
}

// NewExportController creates an ExportController.
func NewExportController(db *gorm.DB) *ExportController {
	return &ExportController{db: db}
}

// AllUsers dumps every user as a public view. Password hashes never leave the model layer.
func (e *ExportController) AllUsers(ctx *gin.Context) {
	if !e.authorized(ctx) {
		e.deny(ctx)
		return
	}
	var users []models.User
	if err := e.db.Find(&users).Error; err != nil {
		utils.Sugar.Errorf("user export failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"response": gin.H{"error": "export failed"}})
		return
	}
	views := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		views = append(views, users[i].PublicView())
	}
	ctx.JSON(http.StatusOK, gin.H{"users": views})
}

// AllPosts dumps every post as a public view.
func (e *ExportController) AllPosts(ctx *gin.Context) {
	if !e.authorized(ctx) {
		e.deny(ctx)
		return
	}
	var posts []models.Post
	if err := e.db.Find(&posts).Error; err != nil {
		utils.Sugar.Errorf("post export failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"response": gin.H{"error": "export failed"}})
		return
	}
	views := make([]map[string]interface{}, 0, len(posts))
	for i := range posts {
		views = append(views, posts[i].PublicView())
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": views})
}

// AllComments dumps every comment as a public view.
func (e *ExportController) AllComments(ctx *gin.Context) {
	if !e.authorized(ctx) {
		e.deny(ctx)
		return
	}
	var comments []models.Comment
	if err := e.db.Find(&comments).Error; err != nil {
		utils.Sugar.Errorf("comment export failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"response": gin.H{"error": "export failed"}})
		return
	}
	views := make([]map[string]interface{}, 0, len(comments))
	for i := range comments {
		views = append(views, comments[i].PublicView())
	}
	ctx.JSON(http.StatusOK, gin.H{"comments": views})
}

// authorized compares the supplied key against the configured secret in
// constant time. Anything but an exact match is a miss.
func (e *ExportController) authorized(ctx *gin.Context) bool {
	supplied := ctx.Query("guest-api-key")
	expected := config.Get().GuestAPIKey
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}

func (e *ExportController) deny(ctx *gin.Context) {
	ctx.JSON(http.StatusForbidden, gin.H{"response": gin.H{"error": exportDeniedMessage}})
}
