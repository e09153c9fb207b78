package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hollen/inkblog/utils"
)

// ContactController handles the contact form and relays submissions through
// the SMTP mailer. The sender is injectable so tests can fake delivery.
type ContactController struct {
	send func(name, email, phone, message string) error
}

// NewContactController creates a ContactController backed by the real mailer.
func NewContactController() *ContactController {
	return &ContactController{send: utils.SendContactMessage}
}

// NewContactControllerWithSender creates a ContactController with a custom delivery function.
func NewContactControllerWithSender(send func(name, email, phone, message string) error) *ContactController {
	return &ContactController{send: send}
}

// ContactForm renders the contact page.
func (c *ContactController) ContactForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "contact.html", nil)
}

// SendMessage validates the submission and relays it. Delivery failures
// surface to the visitor; they are never a silent success.
func (c *ContactController) SendMessage(ctx *gin.Context) {
	var req struct {
		Name    string `form:"name" binding:"required"`
		Email   string `form:"email" binding:"required,email"`
		Phone   string `form:"phone"`
		Message string `form:"message" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		render(ctx, http.StatusOK, "contact.html", gin.H{
			"Error": "Name, a valid email, and a message are required.",
		})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = "No data input"
	}

	if err := c.send(req.Name, req.Email, phone, req.Message); err != nil {
		utils.Sugar.Errorf("contact message delivery failed: %v", err)
		utils.Flash(ctx, "Sorry, your message could not be delivered. Please try again later.")
		ctx.Redirect(http.StatusSeeOther, "/contact")
		return
	}

	utils.Flash(ctx, "Your message has been successfully sent.")
	ctx.Redirect(http.StatusSeeOther, "/contact")
}
