package models

import "github.com/samber/lo"

// DefaultAvatarURL is served in place of a missing or broken avatar.
const DefaultAvatarURL = "https://i.ibb.co/0jQjZfV/default-avatar.jpg"

// User is the account record returned by the server and persisted locally as
// the current session.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

func (u User) AvatarOrDefault() string {
	return lo.Ternary(len(u.Avatar) > 0, u.Avatar, DefaultAvatarURL)
}
