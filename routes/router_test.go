package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hollen/inkblog/config"
	"github.com/hollen/inkblog/middleware"
	"github.com/hollen/inkblog/models"
	"github.com/hollen/inkblog/utils"
)

const (
	testExportKey  = "router-export-key"
	testAdminEmail = "admin@example.com"
)

var loggerOnce sync.Once

// newTestEnv boots the full router against a private in-memory database.
func newTestEnv(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()

	loggerOnce.Do(func() {
		_ = utils.InitLogger(config.AppConfig{LogLevel: "error"})
	})

	config.Override(config.AppConfig{
		AppPort:       "0",
		SessionSecret: "router-test-secret",
		GuestAPIKey:   testExportKey,
		AdminEmail:    testAdminEmail,
		GinMode:       "test",
		GinPath:       filepath.Join(t.TempDir(), "gin.log"),
		LogLevel:      "error",
		// Closed port: session revocation falls back to process memory.
		RedisHost: "127.0.0.1",
		RedisPort: 1,
	})

	dbName := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}))

	srv := httptest.NewServer(SetupRouter(db))
	t.Cleanup(srv.Close)
	return srv, db
}

// newBrowser returns a client with a cookie jar that follows redirects, which
// is how a real visitor moves through flash-and-redirect flows.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// noFollow makes the client surface the first redirect response instead of chasing it.
func noFollow(c *http.Client) *http.Client {
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func get(t *testing.T, client *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func register(t *testing.T, client *http.Client, base, name, email, password string) {
	t.Helper()
	resp, _ := postForm(t, client, base+"/register", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func seedPost(t *testing.T, db *gorm.DB, authorID uint, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID: authorID,
		Title:    title,
		Subtitle: "A subtitle",
		Date:     "January 02, 2006",
		Body:     "<p>Body text</p>",
		ImgURL:   "https://example.com/cover.png",
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func seedUser(t *testing.T, db *gorm.DB, name, email, password, role string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Email: email, PasswordHash: hash, Name: name, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func sessionCookie(t *testing.T, client *http.Client, base string) *http.Cookie {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterDuplicateEmailCreatesOneUser(t *testing.T) {
	srv, db := newTestEnv(t)

	first := newBrowser(t)
	register(t, first, srv.URL, "jane doe", "jane@example.com", "password123")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var user models.User
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&user).Error)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, models.RoleMember, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, utils.CheckPassword(user.PasswordHash, "password123"))

	second := newBrowser(t)
	resp, body := postForm(t, second, srv.URL+"/register", url.Values{
		"name":     {"jane again"},
		"email":    {"jane@example.com"},
		"password": {"password456"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "You&#39;ve already signed up with that email, log in instead!")
	assert.Contains(t, resp.Request.URL.Path, "/login")

	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Nil(t, sessionCookie(t, second, srv.URL))
}

func TestRegisterValidation(t *testing.T) {
	srv, db := newTestEnv(t)

	client := newBrowser(t)
	resp, body := postForm(t, client, srv.URL+"/register", url.Values{
		"name":     {"short pw"},
		"email":    {"short@example.com"},
		"password": {"1234567"}, // one below the minimum
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "at least 8 characters")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestLoginOutcomes(t *testing.T) {
	srv, db := newTestEnv(t)
	seedUser(t, db, "Alice", "alice@example.com", "alicepass1", models.RoleMember)

	t.Run("unknown email", func(t *testing.T) {
		client := noFollow(newBrowser(t))
		resp, _ := postForm(t, client, srv.URL+"/login", url.Values{
			"email":    {"nobody@example.com"},
			"password": {"whatever1"},
		})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Nil(t, sessionCookie(t, client, srv.URL))

		_, body := get(t, client, srv.URL+"/login")
		assert.Contains(t, body, "The email does not exist, please try again.")
	})

	t.Run("wrong password", func(t *testing.T) {
		client := noFollow(newBrowser(t))
		resp, _ := postForm(t, client, srv.URL+"/login", url.Values{
			"email":    {"alice@example.com"},
			"password": {"not-her-password"},
		})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Nil(t, sessionCookie(t, client, srv.URL))

		_, body := get(t, client, srv.URL+"/login")
		assert.Contains(t, body, "Password incorrect, please try again.")
	})

	t.Run("success", func(t *testing.T) {
		client := noFollow(newBrowser(t))
		resp, _ := postForm(t, client, srv.URL+"/login", url.Values{
			"email":    {"alice@example.com"},
			"password": {"alicepass1"},
		})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
		assert.NotNil(t, sessionCookie(t, client, srv.URL))
	})
}

func TestAdminOnlyPostMutation(t *testing.T) {
	srv, db := newTestEnv(t)

	admin := newBrowser(t)
	register(t, admin, srv.URL, "site owner", testAdminEmail, "adminpass1")

	var owner models.User
	require.NoError(t, db.Where("email = ?", testAdminEmail).First(&owner).Error)
	assert.Equal(t, models.RoleAdmin, owner.Role)

	form := url.Values{
		"title":    {"First Post"},
		"subtitle": {"Hello"},
		"img_url":  {"https://example.com/img.png"},
		"body":     {"<p>welcome</p>"},
	}
	resp, _ := postForm(t, admin, srv.URL+"/new-post", form)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	member := newBrowser(t)
	register(t, member, srv.URL, "normal user", "member@example.com", "memberpass1")
	resp, _ = postForm(t, member, srv.URL+"/new-post", url.Values{
		"title":    {"Member Post"},
		"subtitle": {"nope"},
		"img_url":  {"https://example.com/img.png"},
		"body":     {"<p>nope</p>"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	anon := newBrowser(t)
	resp, _ = get(t, anon, srv.URL+"/new-post")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = get(t, anon, srv.URL+"/delete/1")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDuplicateTitleRejected(t *testing.T) {
	srv, db := newTestEnv(t)

	admin := newBrowser(t)
	register(t, admin, srv.URL, "site owner", testAdminEmail, "adminpass1")
	seedPost(t, db, 1, "Taken Title")

	resp, body := postForm(t, admin, srv.URL+"/new-post", url.Values{
		"title":    {"Taken Title"},
		"subtitle": {"again"},
		"img_url":  {"https://example.com/img.png"},
		"body":     {"<p>dup</p>"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A post with that title already exists.")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEditPostKeepsCreationDate(t *testing.T) {
	srv, db := newTestEnv(t)

	admin := newBrowser(t)
	register(t, admin, srv.URL, "site owner", testAdminEmail, "adminpass1")
	post := seedPost(t, db, 1, "Original Title")

	resp, _ := postForm(t, admin, srv.URL+fmt.Sprintf("/edit-post/%d", post.ID), url.Values{
		"title":    {"Updated Title"},
		"subtitle": {"Updated subtitle"},
		"img_url":  {"https://example.com/new.png"},
		"body":     {"<p>updated</p>"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "Updated Title", reloaded.Title)
	assert.Equal(t, "Updated subtitle", reloaded.Subtitle)
	assert.Equal(t, post.Date, reloaded.Date)
}

func TestAnonymousCommentRedirectsToLogin(t *testing.T) {
	srv, db := newTestEnv(t)
	author := seedUser(t, db, "Author", "author@example.com", "authorpass", models.RoleAdmin)
	post := seedPost(t, db, author.ID, "Commentable")

	client := noFollow(newBrowser(t))
	resp, _ := postForm(t, client, srv.URL+fmt.Sprintf("/post/%d", post.ID), url.Values{
		"comment": {"drive-by comment"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	_, body := get(t, client, srv.URL+"/login")
	assert.Contains(t, body, "You need to login or register to comment.")
}

func TestShowPostNotFound(t *testing.T) {
	srv, _ := newTestEnv(t)
	client := newBrowser(t)
	resp, _ := get(t, client, srv.URL+"/post/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentOwnership(t *testing.T) {
	srv, db := newTestEnv(t)
	author := seedUser(t, db, "Author", "author@example.com", "authorpass", models.RoleAdmin)
	post := seedPost(t, db, author.ID, "Moderated")

	alice := newBrowser(t)
	register(t, alice, srv.URL, "alice", "alice@example.com", "alicepass1")
	resp, _ := postForm(t, alice, srv.URL+fmt.Sprintf("/post/%d", post.ID), url.Values{
		"comment": {"alice was here"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var comment models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).First(&comment).Error)

	editURL := fmt.Sprintf("%s/edit_comment?post_id=%d&comment_id=%d", srv.URL, post.ID, comment.ID)
	deleteURL := fmt.Sprintf("%s/delete_comment?post_id=%d&comment_id=%d", srv.URL, post.ID, comment.ID)

	bob := newBrowser(t)
	register(t, bob, srv.URL, "bob", "bob@example.com", "bobpass123")
	resp, _ = postForm(t, bob, editURL, url.Values{"comment": {"bob rewrote this"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = get(t, bob, deleteURL)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var unchanged models.Comment
	require.NoError(t, db.First(&unchanged, comment.ID).Error)
	assert.Equal(t, "alice was here", unchanged.Text)

	// The author can edit their own comment.
	resp, body := postForm(t, alice, editURL, url.Values{"comment": {"alice edited this"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alice edited this")

	// The admin can delete someone else's comment.
	adminClient := noFollow(newBrowser(t))
	resp, _ = postForm(t, adminClient, srv.URL+"/login", url.Values{
		"email":    {"author@example.com"},
		"password": {"authorpass"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = get(t, adminClient, deleteURL)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeletePostCascadesComments(t *testing.T) {
	srv, db := newTestEnv(t)

	admin := newBrowser(t)
	register(t, admin, srv.URL, "site owner", testAdminEmail, "adminpass1")

	var owner models.User
	require.NoError(t, db.Where("email = ?", testAdminEmail).First(&owner).Error)
	post := seedPost(t, db, owner.ID, "Doomed Post")
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: owner.ID, Text: "first"}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: owner.ID, Text: "second"}).Error)

	resp, _ := get(t, admin, srv.URL+fmt.Sprintf("/delete/%d", post.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var postCount, commentCount int64
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.Equal(t, int64(0), postCount)
	assert.Equal(t, int64(0), commentCount)
}

func TestExportEndpoints(t *testing.T) {
	srv, db := newTestEnv(t)
	author := seedUser(t, db, "Author", "author@example.com", "authorpass", models.RoleAdmin)
	post := seedPost(t, db, author.ID, "Exported")
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "exported comment"}).Error)

	client := newBrowser(t)

	t.Run("correct key", func(t *testing.T) {
		resp, body := get(t, client, srv.URL+"/all_post?guest-api-key="+testExportKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var payload struct {
			Posts []map[string]any `json:"posts"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &payload))
		assert.Len(t, payload.Posts, 1)
		assert.Equal(t, "Exported", payload.Posts[0]["title"])

		resp, body = get(t, client, srv.URL+"/all_user?guest-api-key="+testExportKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var users struct {
			Users []map[string]any `json:"users"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &users))
		assert.Len(t, users.Users, 1)
		for _, u := range users.Users {
			assert.NotContains(t, u, "password")
			assert.NotContains(t, u, "password_hash")
		}
		assert.NotContains(t, body, author.PasswordHash)

		resp, body = get(t, client, srv.URL+"/all_comment?guest-api-key="+testExportKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var comments struct {
			Comments []map[string]any `json:"comments"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &comments))
		assert.Len(t, comments.Comments, 1)
	})

	t.Run("wrong key", func(t *testing.T) {
		for _, target := range []string{"/all_user", "/all_post", "/all_comment"} {
			resp, body := get(t, client, srv.URL+target+"?guest-api-key=wrong")
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Contains(t, body, "Sorry, only admins can access this.")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		resp, _ := get(t, client, srv.URL+"/all_post")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestContactDeliveryFailureSurfaces(t *testing.T) {
	// SMTP is deliberately unconfigured, so the relay fails and the visitor sees it.
	srv, _ := newTestEnv(t)
	client := newBrowser(t)

	resp, body := postForm(t, client, srv.URL+"/contact", url.Values{
		"name":    {"Visitor"},
		"email":   {"visitor@example.com"},
		"message": {"hello operator"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Request.URL.Path, "/contact")
	assert.Contains(t, body, "could not be delivered")
}

func TestEndToEndCommentScenario(t *testing.T) {
	srv, db := newTestEnv(t)
	author := seedUser(t, db, "Author", "author@example.com", "authorpass", models.RoleAdmin)
	post := seedPost(t, db, author.ID, "Scenario Post")
	postURL := srv.URL + fmt.Sprintf("/post/%d", post.ID)

	client := newBrowser(t)
	register(t, client, srv.URL, "user a", "usera@example.com", "userapass1")

	resp, body := get(t, client, postURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Scenario Post")

	resp, body = postForm(t, client, postURL, url.Values{"comment": {"hello"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, "User A")

	resp, _ = get(t, client, srv.URL+"/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, sessionCookie(t, client, srv.URL))

	// The comment stays visible to anonymous readers.
	resp, body = get(t, newBrowser(t), postURL)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, "User A")
}
