package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glazor-app/glazor-cli/pkg/internal/api"
	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/glazor-app/glazor-cli/pkg/internal/services"
	"github.com/glazor-app/glazor-cli/pkg/internal/session"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shownFeed struct {
	user  models.User
	feed  services.FeedView
	stale bool
}

// recorder captures everything the controller pushes at the frontend.
type recorder struct {
	mu        sync.Mutex
	notices   []string
	authShown int
	feeds     []shownFeed
	busy      []string
	cleared   []string
}

func (r *recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func (r *recorder) ShowAuth() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authShown++
}

func (r *recorder) ShowFeed(user models.User, feed services.FeedView, stale bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = append(r.feeds, shownFeed{user: user, feed: feed, stale: stale})
}

func (r *recorder) SetBusy(control, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, control+": "+label)
}

func (r *recorder) ClearBusy(control string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, control)
}

func (r *recorder) lastFeed() (shownFeed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.feeds) == 0 {
		return shownFeed{}, false
	}
	return r.feeds[len(r.feeds)-1], true
}

func (r *recorder) hasNotice(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notice := range r.notices {
		if strings.Contains(notice, substr) {
			return true
		}
	}
	return false
}

func (r *recorder) authCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authShown
}

// fakeBackend is a scriptable Backend for flows where a real HTTP round trip
// adds nothing.
type fakeBackend struct {
	mu           sync.Mutex
	posts        []models.Post
	listErr      error
	likeGate     chan error
	commentErr   error
	createErr    error
	listCalls    int
	likeCalls    int
	commentCalls int
	createCalls  int
}

func (b *fakeBackend) Register(name, phone, password, avatarPath string) (*models.User, error) {
	return nil, errors.New("not scripted")
}

func (b *fakeBackend) Login(phone, password string) (models.User, error) {
	return models.User{}, errors.New("not scripted")
}

func (b *fakeBackend) ListPosts() ([]models.Post, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.posts, nil
}

func (b *fakeBackend) CreatePost(photoPath, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCalls++
	return b.createErr
}

func (b *fakeBackend) Like(postID, userID string) error {
	b.mu.Lock()
	b.likeCalls++
	gate := b.likeGate
	b.mu.Unlock()
	if gate == nil {
		return nil
	}
	return <-gate
}

func (b *fakeBackend) Comment(postID, userID, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commentCalls++
	return b.commentErr
}

func (b *fakeBackend) setListErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

func (b *fakeBackend) counts() (list, like, comment, create int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls, b.likeCalls, b.commentCalls, b.createCalls
}

func newStore(t *testing.T) (*session.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return session.NewStore(path), path
}

func newCache(t *testing.T) *services.FeedCache {
	t.Helper()
	cache, err := services.NewFeedCache()
	require.NoError(t, err)
	return cache
}

func fakeController(t *testing.T, backend *fakeBackend) (*Controller, *recorder, *session.Store) {
	t.Helper()
	store, _ := newStore(t)
	front := &recorder{}
	return NewController(backend, store, front, newCache(t)), front, store
}

func loggedIn(t *testing.T, ctrl *Controller, store *session.Store) {
	t.Helper()
	require.NoError(t, store.Save(models.User{ID: "u1", Name: "Ann"}))
	ctrl.Startup()
	require.Equal(t, ViewFeed, ctrl.CurrentView())
}

func TestController_LoginPersistsSessionAndLoadsFeed(t *testing.T) {
	var postsHits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			body, _ := jsoniter.Marshal(map[string]any{
				"user": map[string]string{"id": "u1", "name": "Ann"},
			})
			w.Write(body)
		case "/api/posts":
			postsHits.Add(1)
			w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store, _ := newStore(t)
	front := &recorder{}
	ctrl := NewController(api.NewClient(server.URL), store, front, newCache(t))

	ctrl.Login("5550001", "pw")

	// Session is persisted as the returned user.
	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "u1", saved.ID)
	assert.Equal(t, "Ann", saved.Name)

	// And the feed load was triggered immediately after.
	assert.EqualValues(t, 1, postsHits.Load())
	shown, ok := front.lastFeed()
	require.True(t, ok)
	assert.Equal(t, "Ann", shown.user.Name)
	assert.Equal(t, services.NoPostsPlaceholder, shown.feed.Placeholder)
	assert.Equal(t, ViewFeed, ctrl.CurrentView())
}

func TestController_LoginBlankFieldsNeverHitTheNetwork(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	store, _ := newStore(t)
	front := &recorder{}
	ctrl := NewController(api.NewClient(server.URL), store, front, newCache(t))

	ctrl.Login("", "pw")

	assert.EqualValues(t, 0, hits.Load())
	assert.True(t, front.hasNotice("phone and password"))
	assert.Equal(t, ViewAuth, ctrl.CurrentView())
}

func TestController_LoginFailureSurfacesMessageAndClearsBusy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"wrong phone or password"}`))
	}))
	defer server.Close()

	store, _ := newStore(t)
	front := &recorder{}
	ctrl := NewController(api.NewClient(server.URL), store, front, newCache(t))

	ctrl.Login("5550001", "nope")

	assert.True(t, front.hasNotice("wrong phone or password"))
	assert.Contains(t, front.busy, ControlLogin+": Checking...")
	assert.Contains(t, front.cleared, ControlLogin)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, ViewAuth, ctrl.CurrentView())
}

func TestController_RegisterAutoLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/register":
			body, _ := jsoniter.Marshal(map[string]any{
				"success": true,
				"user":    map[string]string{"id": "u9", "name": "Bob"},
			})
			w.Write(body)
		case "/api/posts":
			w.Write([]byte("[]"))
		}
	}))
	defer server.Close()

	store, _ := newStore(t)
	front := &recorder{}
	ctrl := NewController(api.NewClient(server.URL), store, front, newCache(t))

	ctrl.Register("Bob", "5550002", "pw", "")

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "u9", saved.ID)
	assert.True(t, front.hasNotice("Account created!"))
	assert.Equal(t, ViewFeed, ctrl.CurrentView())
}

func TestController_RegisterWithoutUserReturnsToLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	store, _ := newStore(t)
	front := &recorder{}
	ctrl := NewController(api.NewClient(server.URL), store, front, newCache(t))

	ctrl.Register("Bob", "5550002", "pw", "")

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.True(t, front.hasNotice("Account created!"))
	assert.Equal(t, ViewAuth, ctrl.CurrentView())
	assert.GreaterOrEqual(t, front.authCount(), 1)
}

func TestController_StartupRestoresSession(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1", UserName: "Ann", Likes: 2}}}
	ctrl, front, store := fakeController(t, backend)

	loggedIn(t, ctrl, store)

	shown, ok := front.lastFeed()
	require.True(t, ok)
	require.Len(t, shown.feed.Entries, 1)
	assert.Equal(t, "p1", shown.feed.Entries[0].PostID)
	assert.False(t, shown.stale)
}

func TestController_StartupWithCorruptSessionStartsLoggedOut(t *testing.T) {
	backend := &fakeBackend{}
	store, path := newStore(t)
	front := &recorder{}
	ctrl := NewController(backend, store, front, newCache(t))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0600))
	ctrl.Startup()

	assert.Equal(t, ViewAuth, ctrl.CurrentView())
	assert.GreaterOrEqual(t, front.authCount(), 1)
	assert.True(t, front.hasNotice("starting fresh"))

	// The corrupt blob was cleared along the way.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	list, _, _, _ := backend.counts()
	assert.Zero(t, list)
}

func TestController_CommentReloadsFeed(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1"}}}
	ctrl, _, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	listBefore, _, _, _ := backend.counts()
	ctrl.Comment("p1", "nice shot")

	list, _, comment, _ := backend.counts()
	assert.Equal(t, 1, comment)
	assert.Equal(t, listBefore+1, list)
}

func TestController_CommentFailureSkipsReload(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1"}}, commentErr: errors.New("boom")}
	ctrl, front, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	listBefore, _, _, _ := backend.counts()
	ctrl.Comment("p1", "nice shot")

	list, _, _, _ := backend.counts()
	assert.Equal(t, listBefore, list)
	assert.True(t, front.hasNotice("comment"))
}

func TestController_CreatePostReloadsFeedAndTracksBusy(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1"}}}
	ctrl, front, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	listBefore, _, _, _ := backend.counts()
	ctrl.CreatePost("/tmp/photo.jpg")

	list, _, _, create := backend.counts()
	assert.Equal(t, 1, create)
	assert.Equal(t, listBefore+1, list)
	assert.Contains(t, front.busy, ControlPost+": Publishing...")
	assert.Contains(t, front.cleared, ControlPost)
	assert.True(t, front.hasNotice("Post published!"))
}

func TestController_MutationsRequireSession(t *testing.T) {
	backend := &fakeBackend{}
	ctrl, front, _ := fakeController(t, backend)

	ctrl.CreatePost("/tmp/photo.jpg")
	ctrl.Comment("p1", "hey")
	ctrl.ToggleLike("p1")

	_, like, comment, create := backend.counts()
	assert.Zero(t, like)
	assert.Zero(t, comment)
	assert.Zero(t, create)
	assert.True(t, front.hasNotice("Log in first."))
}

func TestController_ToggleLikeOptimisticThenRevertOnFailure(t *testing.T) {
	backend := &fakeBackend{
		posts:    []models.Post{{ID: "p1", Likes: 2}},
		likeGate: make(chan error, 1),
	}
	ctrl, front, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	ctrl.ToggleLike("p1")

	// The flip is rendered before the request resolves.
	shown, ok := front.lastFeed()
	require.True(t, ok)
	require.Len(t, shown.feed.Entries, 1)
	assert.True(t, shown.feed.Entries[0].Liked)
	assert.Equal(t, 3, shown.feed.Entries[0].Likes)

	backend.likeGate <- errors.New("boom")

	assert.Eventually(t, func() bool {
		shown, ok := front.lastFeed()
		return ok && front.hasNotice("Failed to send the like.") &&
			!shown.feed.Entries[0].Liked && shown.feed.Entries[0].Likes == 2
	}, time.Second, 10*time.Millisecond)
}

func TestController_ReloadFallsBackToCachedSnapshot(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1", UserName: "Ann"}}}
	ctrl, front, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	backend.setListErr(errors.New("connection refused"))
	ctrl.ReloadFeed()

	shown, ok := front.lastFeed()
	require.True(t, ok)
	assert.True(t, shown.stale)
	require.Len(t, shown.feed.Entries, 1)
	assert.Equal(t, "p1", shown.feed.Entries[0].PostID)
	assert.True(t, front.hasNotice("last loaded version"))
}

func TestController_LogoutClearsSessionAndState(t *testing.T) {
	backend := &fakeBackend{posts: []models.Post{{ID: "p1"}}}
	ctrl, front, store := fakeController(t, backend)
	loggedIn(t, ctrl, store)

	ctrl.Logout()

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Nil(t, ctrl.CurrentUser())
	assert.Equal(t, ViewAuth, ctrl.CurrentView())
	assert.GreaterOrEqual(t, front.authCount(), 1)
}
