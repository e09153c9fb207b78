package utils

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Flash queues a one-shot notice shown on the next rendered page.
func Flash(ctx *gin.Context, message string) {
	s := sessions.Default(ctx)
	s.AddFlash(message)
	_ = s.Save()
}

// Flashes drains and returns all pending notices for the current visitor.
func Flashes(ctx *gin.Context) []string {
	s := sessions.Default(ctx)
	raw := s.Flashes()
	if len(raw) > 0 {
		_ = s.Save()
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
