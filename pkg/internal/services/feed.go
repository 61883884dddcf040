package services

import (
	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/samber/lo"
)

const (
	NoPostsPlaceholder    = "No posts yet. Be the first!"
	NoCommentsPlaceholder = "No comments yet"
	AnonymousName         = "Anonymous"
)

// CommentLine is one rendered "author: text" row.
type CommentLine struct {
	Author string
	Text   string
}

// FeedEntry is the data-only rendering of a single post. Interaction wiring
// happens in a separate binding layer keyed by PostID.
type FeedEntry struct {
	PostID              string
	AuthorName          string
	AuthorAvatar        string
	PhotoURL            string
	Likes               int
	Liked               bool
	Comments            []CommentLine
	CommentsPlaceholder string
}

// FeedView is the whole rendered feed. An empty feed carries exactly one
// feed-level placeholder and no entries.
type FeedView struct {
	Entries     []FeedEntry
	Placeholder string
}

// RenderFeed turns the server's post list into the display view-model. Pure:
// same posts and user in, same view out. The server lists posts oldest first;
// the feed shows them newest first, so the output order is the exact reverse
// of the input order. Comments keep their submission order.
func RenderFeed(posts []models.Post, currentUserID string) FeedView {
	if len(posts) == 0 {
		return FeedView{Placeholder: NoPostsPlaceholder}
	}

	entries := lo.Map(lo.Reverse(append([]models.Post{}, posts...)), func(post models.Post, _ int) FeedEntry {
		entry := FeedEntry{
			PostID:       post.ID,
			AuthorName:   lo.Ternary(len(post.UserName) > 0, post.UserName, AnonymousName),
			AuthorAvatar: lo.Ternary(len(post.UserAvatar) > 0, post.UserAvatar, models.DefaultAvatarURL),
			PhotoURL:     post.PhotoURL,
			Likes:        post.Likes,
			Liked:        post.LikedByUser(currentUserID),
		}

		if len(post.Comments) == 0 {
			entry.CommentsPlaceholder = NoCommentsPlaceholder
		} else {
			entry.Comments = lo.Map(post.Comments, func(comment models.Comment, _ int) CommentLine {
				return CommentLine{
					Author: lo.Ternary(len(comment.Name) > 0, comment.Name, AnonymousName),
					Text:   comment.Text,
				}
			})
		}

		return entry
	})

	return FeedView{Entries: entries}
}
