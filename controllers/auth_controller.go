package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/config"
	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

// AuthController handles registration, login and logout.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// RegisterForm renders the signup page.
func (a *AuthController) RegisterForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "register.html", gin.H{"Email": "", "Name": ""})
}

// Register creates a local account with a bcrypt hashed password and logs the
// new user in. Registering an email that already exists redirects to login
// with a notice instead of creating a duplicate.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `form:"email" binding:"required,email"`
		Password string `form:"password" binding:"required,min=8"`
		Name     string `form:"name" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		render(ctx, http.StatusOK, "register.html", gin.H{
			"Error": "Please provide a valid email, a name, and a password of at least 8 characters.",
			"Email": ctx.PostForm("email"),
			"Name":  ctx.PostForm("name"),
		})
		return
	}

	email := strings.TrimSpace(req.Email)
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Flash(ctx, "You've already signed up with that email, log in instead!")
		ctx.Redirect(http.StatusSeeOther, "/login")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		render(ctx, http.StatusOK, "register.html", gin.H{"Error": "Something went wrong, please try again."})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		render(ctx, http.StatusOK, "register.html", gin.H{"Error": "Something went wrong, please try again."})
		return
	}

	role := models.RoleMember
	if cfg := config.Get(); cfg.AdminEmail != "" && email == cfg.AdminEmail {
		role = models.RoleAdmin
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         titleCase(strings.TrimSpace(req.Name)),
		Role:         role,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// A concurrent signup can still trip the unique index between the
		// lookup and the insert; treat it exactly like the pre-check.
		utils.Flash(ctx, "You've already signed up with that email, log in instead!")
		ctx.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := middleware.IssueSession(ctx, &user); err != nil {
		utils.Sugar.Errorf("failed to issue session for user %d: %v", user.ID, err)
		ctx.Redirect(http.StatusSeeOther, "/login")
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// LoginForm renders the login page.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", nil)
}

// Login verifies credentials and establishes a session. Unknown email and
// wrong password stay distinguishable outcomes; neither leaves a session behind.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `form:"email" binding:"required"`
		Password string `form:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		render(ctx, http.StatusOK, "login.html", gin.H{"Error": "Email and password are required."})
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.TrimSpace(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Flash(ctx, "The email does not exist, please try again.")
			ctx.Redirect(http.StatusSeeOther, "/login")
			return
		}
		render(ctx, http.StatusOK, "login.html", gin.H{"Error": "Something went wrong, please try again."})
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Flash(ctx, "Password incorrect, please try again.")
		ctx.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := middleware.IssueSession(ctx, &user); err != nil {
		utils.Sugar.Errorf("failed to issue session for user %d: %v", user.ID, err)
		render(ctx, http.StatusOK, "login.html", gin.H{"Error": "Something went wrong, please try again."})
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

// Logout revokes the current session token, clears the cookie and returns home.
func (a *AuthController) Logout(ctx *gin.Context) {
	middleware.ClearSession(ctx)
	ctx.Redirect(http.StatusSeeOther, "/")
}
