package app

import (
	"errors"
	"strings"
	"sync"

	"github.com/glazor-app/glazor-cli/pkg/internal/api"
	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/glazor-app/glazor-cli/pkg/internal/services"
	"github.com/glazor-app/glazor-cli/pkg/internal/session"
	"github.com/rs/zerolog/log"
)

// View names the two top-level screens.
type View int

const (
	ViewAuth View = iota
	ViewFeed
)

// Control names for busy-state tracking, one per triggering action.
const (
	ControlLogin    = "login"
	ControlRegister = "register"
	ControlPost     = "post"
)

// Backend is the full server capability set, satisfied by *api.Client.
type Backend interface {
	Register(name, phone, password, avatarPath string) (*models.User, error)
	Login(phone, password string) (models.User, error)
	ListPosts() ([]models.Post, error)
	CreatePost(photoPath, userID string) error
	Like(postID, userID string) error
	Comment(postID, userID, text string) error
}

// Frontend is whatever displays the views and notices. The terminal
// implementation lives next door; tests plug in a recorder.
type Frontend interface {
	Notify(message string)
	ShowAuth()
	ShowFeed(user models.User, feed services.FeedView, stale bool)
	SetBusy(control, label string)
	ClearBusy(control string)
}

// Controller orchestrates session, API and rendering. All mutating actions
// except the like toggle finish with a wholesale feed reload; likes adjust
// the rendered view optimistically and reconcile on the next reload.
type Controller struct {
	backend  Backend
	store    *session.Store
	frontend Frontend
	likes    *services.LikeController
	cache    *services.FeedCache

	mu   sync.Mutex
	user *models.User
	view View
	feed services.FeedView
}

func NewController(backend Backend, store *session.Store, frontend Frontend, cache *services.FeedCache) *Controller {
	return &Controller{
		backend:  backend,
		store:    store,
		frontend: frontend,
		likes:    services.NewLikeController(backend),
		cache:    cache,
	}
}

// Startup restores the persisted session, if any. A corrupt blob has already
// been cleared by the store; the interface starts logged out in that case.
func (c *Controller) Startup() {
	user, err := c.store.Load()
	if err != nil {
		if errors.Is(err, session.ErrCorrupted) {
			c.frontend.Notify("Stored session was unreadable, starting fresh.")
		} else {
			c.frontend.Notify("Could not read the stored session.")
		}
		c.showAuth()
		return
	}
	if user == nil {
		c.showAuth()
		return
	}

	c.mu.Lock()
	c.user = user
	c.view = ViewFeed
	c.mu.Unlock()
	c.ReloadFeed()
}

// Login validates locally, then exchanges credentials and enters the feed.
func (c *Controller) Login(phone, password string) {
	if len(strings.TrimSpace(phone)) == 0 || len(password) == 0 {
		c.frontend.Notify("Enter both phone and password.")
		return
	}

	c.frontend.SetBusy(ControlLogin, "Checking...")
	defer c.frontend.ClearBusy(ControlLogin)

	user, err := c.backend.Login(phone, password)
	if err != nil {
		c.frontend.Notify(userMessage(err, "Login failed."))
		return
	}

	c.enterSession(user)
}

// Register creates an account. When the server hands the new user back, the
// client logs in on the spot; otherwise it returns to the login screen.
func (c *Controller) Register(name, phone, password, avatarPath string) {
	if len(strings.TrimSpace(name)) == 0 || len(strings.TrimSpace(phone)) == 0 || len(password) == 0 {
		c.frontend.Notify("Fill in name, phone and password.")
		return
	}

	c.frontend.SetBusy(ControlRegister, "Registering...")
	defer c.frontend.ClearBusy(ControlRegister)

	user, err := c.backend.Register(name, phone, password, avatarPath)
	if err != nil {
		c.frontend.Notify(userMessage(err, "Registration failed."))
		return
	}

	c.frontend.Notify("Account created!")
	if user == nil {
		c.showAuth()
		return
	}
	c.enterSession(*user)
}

// CreatePost uploads a photo and reloads the feed; new posts are never
// rendered optimistically.
func (c *Controller) CreatePost(photoPath string) {
	user, ok := c.requireSession()
	if !ok {
		return
	}
	if len(photoPath) == 0 {
		c.frontend.Notify("Pick a photo first!")
		return
	}

	c.frontend.SetBusy(ControlPost, "Publishing...")
	defer c.frontend.ClearBusy(ControlPost)

	if err := c.backend.CreatePost(photoPath, user.ID); err != nil {
		c.frontend.Notify(userMessage(err, "Failed to upload the post."))
		return
	}

	c.frontend.Notify("Post published!")
	c.ReloadFeed()
}

// Comment appends a comment and reloads the feed on success.
func (c *Controller) Comment(postID, text string) {
	user, ok := c.requireSession()
	if !ok {
		return
	}
	if len(strings.TrimSpace(text)) == 0 {
		c.frontend.Notify("Enter a comment text.")
		return
	}

	if err := c.backend.Comment(postID, user.ID, text); err != nil {
		c.frontend.Notify(userMessage(err, "Could not send the comment."))
		return
	}

	c.ReloadFeed()
}

// ToggleLike flips the displayed like state right away and confirms in the
// background; a failed confirmation reverts the flip and posts a notice. The
// command loop is never blocked by the in-flight request.
func (c *Controller) ToggleLike(postID string) {
	user, ok := c.requireSession()
	if !ok {
		return
	}

	_, done, err := c.likes.Toggle(postID, user.ID)
	if err != nil {
		c.frontend.Notify("No such post in the current feed.")
		return
	}

	c.applyLikeState(postID)
	c.showFeed(false)

	go func() {
		if err := <-done; err != nil {
			c.frontend.Notify("Failed to send the like.")
			c.applyLikeState(postID)
			c.showFeed(false)
		}
	}()
}

// ReloadFeed fetches the whole feed and re-renders it. On failure the last
// good snapshot, when present, is rendered as stale instead.
func (c *Controller) ReloadFeed() {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return
	}

	posts, err := c.backend.ListPosts()
	if err != nil {
		log.Warn().Err(err).Msg("Feed reload failed.")
		if cached, ok := c.cachedPosts(); ok {
			c.renderPosts(cached, user.ID)
			c.frontend.Notify("Failed to refresh the feed, showing the last loaded version.")
			c.showFeed(true)
			return
		}
		c.frontend.Notify("Failed to load the feed.")
		return
	}

	if c.cache != nil {
		c.cache.Store(posts)
	}
	c.renderPosts(posts, user.ID)
	c.showFeed(false)
}

// Logout clears the session and rebuilds the interface state from scratch.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear the stored session.")
	}

	c.mu.Lock()
	c.user = nil
	c.feed = services.FeedView{}
	c.view = ViewAuth
	c.mu.Unlock()

	c.likes.Reset()
	c.frontend.ShowAuth()
}

// CurrentView reports which screen is active.
func (c *Controller) CurrentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// CurrentUser returns the active session user, if any.
func (c *Controller) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	user := *c.user
	return &user
}

func (c *Controller) enterSession(user models.User) {
	if err := c.store.Save(user); err != nil {
		c.frontend.Notify("Could not persist the session; you will be logged out on restart.")
	}

	c.mu.Lock()
	c.user = &user
	c.view = ViewFeed
	c.mu.Unlock()

	c.ReloadFeed()
}

func (c *Controller) requireSession() (models.User, bool) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	if user == nil {
		c.frontend.Notify("Log in first.")
		return models.User{}, false
	}
	return *user, true
}

func (c *Controller) cachedPosts() ([]models.Post, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Last()
}

func (c *Controller) renderPosts(posts []models.Post, userID string) {
	view := services.RenderFeed(posts, userID)
	c.likes.BindFeed(view)

	c.mu.Lock()
	c.feed = view
	c.mu.Unlock()
}

func (c *Controller) showAuth() {
	c.mu.Lock()
	c.view = ViewAuth
	c.mu.Unlock()
	c.frontend.ShowAuth()
}

func (c *Controller) showFeed(stale bool) {
	c.mu.Lock()
	user := c.user
	feed := c.feed
	c.mu.Unlock()
	if user == nil {
		return
	}
	c.frontend.ShowFeed(*user, feed, stale)
}

// applyLikeState mirrors the controller-owned like state of one post into the
// held feed view.
func (c *Controller) applyLikeState(postID string) {
	state, ok := c.likes.State(postID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.feed.Entries {
		if c.feed.Entries[i].PostID == postID {
			c.feed.Entries[i].Liked = state.Liked
			c.feed.Entries[i].Likes = state.Count
		}
	}
}

func userMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Message) > 0 {
		return apiErr.Message
	}
	return fallback
}
