package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hollen/inkblog/utils"
)

// LoginRequired redirects anonymous visitors to the login page instead of
// failing with an error status. It never mutates session or data state.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUser(ctx); !ok {
			utils.Flash(ctx, "Please log in to continue.")
			ctx.Redirect(http.StatusSeeOther, "/login")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// AdminRequired answers 403 Forbidden unless the authenticated user holds the
// administrator role.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok || !user.IsAdmin() {
			ctx.HTML(http.StatusForbidden, "error.html", gin.H{
				"Status":  http.StatusForbidden,
				"Message": "Forbidden",
			})
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
