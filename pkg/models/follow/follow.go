package follow

import "time"

// Direction selects which side of the follow graph to list.
type Direction string

const (
	Followers  Direction = "followers"
	Followings Direction = "followings"
)

type FollowerInfo struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Avatar          *string   `json:"avatar,omitempty"`
	FollowedAt      time.Time `json:"followedAt"`
	HasFollowedBack bool      `json:"hasFollowedBack"`
}
