package domain

import "time"

// Rating is the direction of a feedback vote.
type Rating string

const (
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// FeedbackRecord is one feedback vote on a published answer.
type FeedbackRecord struct {
	Timestamp time.Time
	Rating    Rating
	UserTag   string
	UserID    string
	ShareID   string
	Query     string
	ShareURL  string
	Summary   string
	GuildID   string
	ChannelID string
}
