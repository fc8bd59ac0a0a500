package usecase

import (
	"context"
	"errors"

	"github.com/lightningnetwork/lnd/fn/v2"

	"pdc-bot/internal/domain"
	"pdc-bot/internal/textutil"
)

const (
	MsgExpired      = "This result has expired. Please run the command again."
	MsgThanksUp     = "Thanks for the feedback!"
	MsgThanksDown   = "Thanks, we'll use this to improve."
	msgNoFeedbackTo = "feedback sink not configured; feedback not stored"
)

// User identifies who pressed a button.
type User struct {
	ID  string
	Tag string
}

// ControlInput is one button press.
type ControlInput struct {
	Action    domain.Action
	User      User
	GuildID   string
	ChannelID string
}

// ReplyKind selects how the handler renders a control reply.
type ReplyKind int

const (
	ReplyNone ReplyKind = iota
	ReplyText
	ReplyMore
	ReplySources
)

// ControlOutput describes the single reply for a button press. Result is set
// for ReplyMore and ReplySources; Feedback is set when a vote should be
// persisted after the reply is sent.
type ControlOutput struct {
	Kind     ReplyKind
	Text     string
	Result   domain.CachedResult
	Feedback fn.Option[domain.FeedbackRecord]
}

// Control resolves a button press against the cache. It never calls the
// search backend. Buttons from older messages still get the expired reply
// once their result is gone, and no reply while it is cached.
func (s *Service) Control(_ context.Context, in ControlInput) ControlOutput {
	if in.Action.Kind == domain.ActionUnknown {
		return ControlOutput{Kind: ReplyNone}
	}

	cached := s.cache.Get(in.Action.ShareID)
	if cached.IsNone() {
		return ControlOutput{Kind: ReplyText, Text: MsgExpired}
	}
	entry := cached.UnwrapOr(domain.CachedResult{})

	switch in.Action.Kind {
	case domain.ActionDeprecated:
		return ControlOutput{Kind: ReplyNone}
	case domain.ActionOpenMore:
		return ControlOutput{Kind: ReplyMore, Result: entry}
	case domain.ActionShowSources:
		return ControlOutput{Kind: ReplySources, Result: entry}
	case domain.ActionFeedbackUp:
		return ControlOutput{
			Kind:     ReplyText,
			Text:     MsgThanksUp,
			Feedback: fn.Some(s.feedbackRecord(in, entry, domain.RatingUp)),
		}
	case domain.ActionFeedbackDown:
		return ControlOutput{
			Kind:     ReplyText,
			Text:     MsgThanksDown,
			Feedback: fn.Some(s.feedbackRecord(in, entry, domain.RatingDown)),
		}
	default:
		return ControlOutput{Kind: ReplyNone}
	}
}

func (s *Service) feedbackRecord(in ControlInput, entry domain.CachedResult, rating domain.Rating) domain.FeedbackRecord {
	return domain.FeedbackRecord{
		Timestamp: s.now().UTC(),
		Rating:    rating,
		UserTag:   in.User.Tag,
		UserID:    in.User.ID,
		ShareID:   entry.ShareID,
		Query:     entry.Query,
		ShareURL:  entry.ShareURL,
		Summary:   entry.Summary.UnwrapOr(""),
		GuildID:   in.GuildID,
		ChannelID: in.ChannelID,
	}
}

// FeedbackConfigured reports whether any sink is wired.
func (s *Service) FeedbackConfigured() bool {
	return len(s.sinks) > 0
}

// RecordFeedback writes rec to every configured sink, each under its own
// timeout. Failures are logged for operators and returned joined; a failing or
// hung sink does not stop the others.
func (s *Service) RecordFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	if len(s.sinks) == 0 {
		s.log.Warn(msgNoFeedbackTo, "share_id", rec.ShareID, "rating", rec.Rating)
		return nil
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := s.appendFeedback(ctx, sink, rec); err != nil {
			s.log.Error("failed to store feedback", "sink", sink.Name(), "share_id", rec.ShareID, "err", err)
			errs = append(errs, err)
			continue
		}
		s.log.Info("feedback stored", "sink", sink.Name(), "share_id", rec.ShareID, "rating", rec.Rating)
	}
	return errors.Join(errs...)
}

func (s *Service) appendFeedback(ctx context.Context, sink FeedbackSink, rec domain.FeedbackRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()
	return sink.AppendFeedback(ctx, rec)
}

// description is the embed body: the summary when there is one, otherwise the
// raw answer trimmed to maxChars.
func description(summaryText fn.Option[string], answer string, maxChars int) string {
	return summaryText.UnwrapOr(textutil.Trim(answer, maxChars))
}
