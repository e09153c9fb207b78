package routes

import (
	"html/template"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/config"
	"github.com/hollen/inkblog/controllers"
	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/templates"
	"github.com/hollen/inkblog/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Replace default console logger with a file-based zap access log
	if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
		r.Use(utils.GinRequestLogger(gl))
		r.Use(utils.GinRecovery(gl))
	} else {
		r.Use(gin.Recovery())
	}

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	// Flash notices ride a cookie session; identity rides a separate signed token.
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 300, HttpOnly: true})
	r.Use(sessions.Sessions("blog_flash", store))
	r.Use(middleware.IdentityLoader(db))

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(templates.FS, "*.html"))
	r.SetHTMLTemplate(tmpl)

	blogController := controllers.NewBlogController(db)
	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	exportController := controllers.NewExportController(db)
	contactController := controllers.NewContactController()

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.GET("/", blogController.Index)
	r.GET("/about", blogController.About)
	r.GET("/post/:id", blogController.ShowPost)
	r.POST("/post/:id", blogController.AddComment)

	r.GET("/register", authController.RegisterForm)
	r.POST("/register", authController.Register)
	r.GET("/login", authController.LoginForm)
	r.POST("/login", authController.Login)
	r.GET("/logout", middleware.LoginRequired(), authController.Logout)

	r.GET("/contact", contactController.ContactForm)
	r.POST("/contact", contactController.SendMessage)

	// Shared-secret JSON exports, independent of the session mechanism
	r.GET("/all_user", exportController.AllUsers)
	r.GET("/all_post", exportController.AllPosts)
	r.GET("/all_comment", exportController.AllComments)

	admin := r.Group("", middleware.AdminRequired())
	admin.GET("/new-post", postController.NewPostForm)
	admin.POST("/new-post", postController.CreatePost)
	admin.GET("/edit-post/:id", postController.EditPostForm)
	admin.POST("/edit-post/:id", postController.UpdatePost)
	admin.GET("/delete/:id", postController.DeletePost)

	authed := r.Group("", middleware.LoginRequired())
	authed.GET("/edit_comment", commentController.EditCommentForm)
	authed.POST("/edit_comment", commentController.UpdateComment)
	authed.GET("/delete_comment", commentController.DeleteComment)
	authed.POST("/delete_comment", commentController.DeleteComment)

	return r
}
