package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserPublicViewOmitsPassword(t *testing.T) {
	u := User{ID: 1, Email: "a@example.com", PasswordHash: "$2a$10$secret", Name: "A", Role: RoleMember}
	view := u.PublicView()

	assert.Equal(t, uint(1), view["id"])
	assert.Equal(t, "a@example.com", view["email"])
	assert.NotContains(t, view, "password")
	assert.NotContains(t, view, "password_hash")
	for _, v := range view {
		assert.NotEqual(t, u.PasswordHash, v)
	}
}

func TestIsAdmin(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	member := &User{Role: RoleMember}
	var nobody *User

	assert.True(t, admin.IsAdmin())
	assert.False(t, member.IsAdmin())
	assert.False(t, nobody.IsAdmin())
}

func TestPostPublicViewFields(t *testing.T) {
	p := Post{ID: 3, AuthorID: 1, Title: "T", Subtitle: "S", Date: "August 29, 2026", Body: "<p>b</p>", ImgURL: "https://example.com/i.png"}
	view := p.PublicView()

	assert.Equal(t, uint(3), view["id"])
	assert.Equal(t, "T", view["title"])
	assert.Equal(t, "August 29, 2026", view["date"])
	assert.NotContains(t, view, "created_at")
}
