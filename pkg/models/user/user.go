package user

import "strings"

// User is the profile snapshot returned by the API. It is replaced wholesale
// on every refetch.
type User struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         *string `json:"email,omitempty"`
	Avatar        *string `json:"avatar,omitempty"`
	Cover         *string `json:"cover,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	WebsiteURL    *string `json:"websiteUrl,omitempty"`
	FollowerCount int     `json:"followerCount"`
	PostCount     int     `json:"postCount"`
}

// DisplayName is "first last", or the username when both are blank.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// AvatarURL returns the avatar or "" when none is set.
func (u User) AvatarURL() string {
	if u.Avatar == nil {
		return ""
	}
	return *u.Avatar
}
