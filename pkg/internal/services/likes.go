package services

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
)

// LikeBackend is the one server capability the controller needs.
type LikeBackend interface {
	Like(postID, userID string) error
}

// LikeState is the displayed like state of a single post: what the user sees,
// not what the server last confirmed.
type LikeState struct {
	Liked bool
	Count int
}

// LikeController owns the displayed like state per post and applies toggles
// optimistically: the flip happens before the confirming request is issued,
// and a failed request reverts to that click's pre-toggle snapshot. Rapid
// repeated toggles each carry their own flip and request; overlapping
// completions resolve last-write-wins and are reconciled by the next full
// feed reload.
type LikeController struct {
	backend LikeBackend

	mu      sync.Mutex
	display map[string]LikeState
}

func NewLikeController(backend LikeBackend) *LikeController {
	return &LikeController{
		backend: backend,
		display: make(map[string]LikeState),
	}
}

// BindFeed re-seeds the displayed state from a freshly rendered feed,
// dropping whatever optimistic adjustments the previous view carried.
func (c *LikeController) BindFeed(view FeedView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display = make(map[string]LikeState, len(view.Entries))
	for _, entry := range view.Entries {
		c.display[entry.PostID] = LikeState{Liked: entry.Liked, Count: entry.Likes}
	}
}

// State returns the currently displayed like state of a post.
func (c *LikeController) State(postID string) (LikeState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.display[postID]
	return state, ok
}

// Toggle flips the displayed state synchronously, then confirms with the
// server in the background. The returned state is the optimistic one; the
// channel yields the request outcome once, after any revert has been applied.
func (c *LikeController) Toggle(postID, userID string) (LikeState, <-chan error, error) {
	c.mu.Lock()
	prev, ok := c.display[postID]
	if !ok {
		c.mu.Unlock()
		return LikeState{}, nil, fmt.Errorf("no rendered post with id %s", postID)
	}

	next := LikeState{
		Liked: !prev.Liked,
		Count: prev.Count + lo.Ternary(prev.Liked, -1, 1),
	}
	c.display[postID] = next
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := c.backend.Like(postID, userID)
		if err != nil {
			c.mu.Lock()
			c.display[postID] = prev
			c.mu.Unlock()
		}
		done <- err
		close(done)
	}()

	return next, done, nil
}

// Reset forgets all displayed state, used when the interface is rebuilt from
// scratch on logout.
func (c *LikeController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display = make(map[string]LikeState)
}
