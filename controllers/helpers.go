package controllers

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/utils"
)

var titleCaser = cases.Title(language.English)

// render writes an HTML page with the current identity and any pending flash
// notices merged into the template data.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(ctx); ok {
		data["User"] = user
	}
	data["Flashes"] = utils.Flashes(ctx)
	ctx.HTML(status, name, data)
}

// titleCase normalizes a display name ("john doe" -> "John Doe").
func titleCase(s string) string {
	return titleCaser.String(s)
}
