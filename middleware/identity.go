package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

const (
	// SessionCookieName is the cookie carrying the signed session token.
	SessionCookieName = "blog_session"
	// ContextUserKey is the key used to store the authenticated user in Gin context.
	ContextUserKey = "current_user"
)

// IdentityLoader resolves the session cookie into a database-backed user on
// every request. A missing cookie, an invalid or revoked token, or a user that
// no longer exists all leave the request anonymous; authorization decisions
// never trust the token's claims alone.
func IdentityLoader(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(SessionCookieName)
		if err != nil || token == "" {
			ctx.Next()
			return
		}

		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		if utils.IsSessionRevoked(claims.ID) {
			ctx.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			ctx.Next()
			return
		}

		ctx.Set(ContextUserKey, &user)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user for this request, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// IssueSession signs a session token for the user and sets the session cookie.
func IssueSession(ctx *gin.Context, user *models.User) error {
	token, err := utils.GenerateSessionToken(user.ID, user.Name, utils.SessionDuration)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(SessionCookieName, token, int(utils.SessionDuration.Seconds()), "/", "", false, true)
	return nil
}

// ClearSession revokes the current session token and expires the cookie.
func ClearSession(ctx *gin.Context) {
	if token, err := ctx.Cookie(SessionCookieName); err == nil && token != "" {
		if claims, err := utils.ParseSessionToken(token); err == nil && claims.ExpiresAt != nil {
			utils.RevokeSession(claims.ID, claims.ExpiresAt.Time)
		}
	}
	ctx.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}
