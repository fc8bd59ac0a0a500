package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"

	"pdc-bot/internal/cache"
	"pdc-bot/internal/domain"
)

func seeded(t *testing.T, opts ...Option) fixture {
	t.Helper()
	f := newFixture(t, happySearch(), unavailable(), Config{}, opts...)
	_, err := f.svc.Query(context.Background(), QueryInput{Query: "What happens in episode 4?"})
	require.NoError(t, err)
	f.search.searchCalls, f.search.shareCalls = 0, 0
	return f
}

func press(kind domain.ActionKind, shareID string) ControlInput {
	return ControlInput{
		Action:    domain.Action{Kind: kind, ShareID: shareID},
		User:      User{ID: "u1", Tag: "alice"},
		GuildID:   "g1",
		ChannelID: "c1",
	}
}

func TestControl_ExpiredResult(t *testing.T) {
	f := seeded(t)
	f.clock.Advance(cache.DefaultTTL + time.Second)

	out := f.svc.Control(context.Background(), press(domain.ActionFeedbackDown, "abc123"))
	require.Equal(t, ReplyText, out.Kind)
	require.Equal(t, MsgExpired, out.Text)
	require.True(t, out.Feedback.IsNone())
}

func TestControl_UnknownShare(t *testing.T) {
	f := seeded(t)
	out := f.svc.Control(context.Background(), press(domain.ActionOpenMore, "nope"))
	require.Equal(t, MsgExpired, out.Text)
}

func TestControl_RevealActionsUseCacheOnly(t *testing.T) {
	f := seeded(t)

	more := f.svc.Control(context.Background(), press(domain.ActionOpenMore, "abc123"))
	require.Equal(t, ReplyMore, more.Kind)
	require.Equal(t, "...", more.Result.Answer)

	sources := f.svc.Control(context.Background(), press(domain.ActionShowSources, "abc123"))
	require.Equal(t, ReplySources, sources.Kind)
	require.Equal(t, "abc123", sources.Result.ShareID)

	require.Zero(t, f.search.searchCalls)
	require.Zero(t, f.search.shareCalls)
}

func TestControl_FeedbackBuildsRecord(t *testing.T) {
	f := seeded(t)
	f.clock.Advance(time.Minute)

	out := f.svc.Control(context.Background(), press(domain.ActionFeedbackDown, "abc123"))
	require.Equal(t, MsgThanksDown, out.Text)
	rec := out.Feedback.UnwrapOr(domain.FeedbackRecord{})
	require.Equal(t, domain.FeedbackRecord{
		Timestamp: f.clock.Now(),
		Rating:    domain.RatingDown,
		UserTag:   "alice",
		UserID:    "u1",
		ShareID:   "abc123",
		Query:     "What happens in episode 4?",
		ShareURL:  testBaseURL + "/s/abc123",
		GuildID:   "g1",
		ChannelID: "c1",
	}, rec)

	up := f.svc.Control(context.Background(), press(domain.ActionFeedbackUp, "abc123"))
	require.Equal(t, MsgThanksUp, up.Text)
	require.Equal(t, domain.RatingUp, up.Feedback.UnwrapOr(domain.FeedbackRecord{}).Rating)
}

func TestControl_DeprecatedAndUnknownNoReply(t *testing.T) {
	f := seeded(t)
	require.Equal(t, ReplyNone, f.svc.Control(context.Background(), press(domain.ActionDeprecated, "abc123")).Kind)
	require.Equal(t, ReplyNone, f.svc.Control(context.Background(), press(domain.ActionUnknown, "")).Kind)
}

func TestControl_DeprecatedOnExpiredResult(t *testing.T) {
	f := seeded(t)
	f.clock.Advance(cache.DefaultTTL + time.Second)

	out := f.svc.Control(context.Background(), press(domain.ActionDeprecated, "abc123"))
	require.Equal(t, ReplyText, out.Kind)
	require.Equal(t, MsgExpired, out.Text)
	require.True(t, out.Feedback.IsNone())
}

func TestRecordFeedback_NoSinks(t *testing.T) {
	f := seeded(t)
	require.False(t, f.svc.FeedbackConfigured())
	require.NoError(t, f.svc.RecordFeedback(context.Background(), domain.FeedbackRecord{ShareID: "abc123"}))
}

func TestRecordFeedback_FanOutContinuesAfterFailure(t *testing.T) {
	bad := &mockSink{name: "sheets", err: errors.New("quota")}
	good := &mockSink{name: "dynamodb"}
	f := seeded(t, WithFeedbackSinks(bad, nil, good))
	require.True(t, f.svc.FeedbackConfigured())

	rec := domain.FeedbackRecord{ShareID: "abc123", Rating: domain.RatingDown}
	err := f.svc.RecordFeedback(context.Background(), rec)
	require.ErrorContains(t, err, "quota")
	require.Equal(t, []domain.FeedbackRecord{rec}, bad.records)
	require.Equal(t, []domain.FeedbackRecord{rec}, good.records)
}

// hangingSink blocks until its context is done.
type hangingSink struct {
	done chan error
}

func (h *hangingSink) Name() string { return "hanging" }

func (h *hangingSink) AppendFeedback(ctx context.Context, _ domain.FeedbackRecord) error {
	<-ctx.Done()
	h.done <- ctx.Err()
	return ctx.Err()
}

func TestRecordFeedback_HungSinkTimesOut(t *testing.T) {
	hung := &hangingSink{done: make(chan error, 1)}
	good := &mockSink{name: "dynamodb"}
	f := newFixture(t, happySearch(), unavailable(), Config{UpstreamTimeout: 20 * time.Millisecond},
		WithFeedbackSinks(hung, good))

	rec := domain.FeedbackRecord{ShareID: "abc123", Rating: domain.RatingUp}
	start := time.Now()
	err := f.svc.RecordFeedback(context.Background(), rec)
	require.Less(t, time.Since(start), 2*time.Second)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, <-hung.done, context.DeadlineExceeded)
	require.Equal(t, []domain.FeedbackRecord{rec}, good.records)
}

func TestDescription(t *testing.T) {
	require.Equal(t, "s", description(fn.Some("s"), "answer", 900))
	require.Equal(t, "ans...", description(fn.None[string](), "answer text", 6))
}
