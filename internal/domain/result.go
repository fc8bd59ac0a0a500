package domain

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// CachedResult is one previously answered query, keyed by its share id.
type CachedResult struct {
	ShareID  string
	ShareURL string
	Query    string
	Answer   string
	Summary  fn.Option[string]
	Sources  Sources

	// CreatedAt is stamped by the cache on insertion.
	CreatedAt time.Time
}
