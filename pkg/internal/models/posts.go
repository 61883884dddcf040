package models

import "github.com/samber/lo"

// Comment is a single comment line under a post. The server keeps comments in
// submission order, oldest first.
type Comment struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Post is the wire shape of a feed entry. The author fields are denormalized
// by the server at creation time. The server lists posts oldest first.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	PhotoURL   string    `json:"photoUrl"`
	Likes      int       `json:"likes"`
	LikedBy    []string  `json:"likedBy"`
	Comments   []Comment `json:"comments"`
}

// LikedByUser reports whether the given user is in the post's liked-by set.
// Membership, not the counter, determines the rendered like state.
func (p Post) LikedByUser(userID string) bool {
	return lo.Contains(p.LikedBy, userID)
}
