package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"pdc-bot/internal/domain"
	"pdc-bot/internal/summary"
)

const (
	defaultMaxQuery     = 300
	defaultUpstreamWait = 60 * time.Second
)

// Searcher is the search backend port.
type Searcher interface {
	Search(ctx context.Context, query string) (domain.SearchResponse, error)
	CreateShare(ctx context.Context, query string, result domain.SearchResponse) (domain.Share, error)
}

// Summarizer is the optional blurb generator.
type Summarizer interface {
	Summarize(ctx context.Context, req summary.Request) summary.Result
}

// ResultCache is the share-result cache port.
type ResultCache interface {
	Put(shareID string, result domain.CachedResult)
	Get(shareID string) fn.Option[domain.CachedResult]
}

// FeedbackSink persists one feedback vote.
type FeedbackSink interface {
	Name() string
	AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error
}

// Config tunes a Service. Zero values select defaults.
type Config struct {
	SummaryMaxChars int
	MaxQueryLen     int
	UpstreamTimeout time.Duration
}

// Service runs the query pipeline and resolves follow-up button presses.
type Service struct {
	search     Searcher
	summarizer Summarizer
	cache      ResultCache
	sinks      []FeedbackSink
	cfg        Config
	log        *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithFeedbackSinks sets where feedback votes are persisted. Nil sinks are
// skipped.
func WithFeedbackSinks(sinks ...FeedbackSink) Option {
	return func(s *Service) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// QueryInput is one slash-command invocation.
type QueryInput struct {
	Query string
}

// QueryOutput carries everything the renderer needs for the first reply.
type QueryOutput struct {
	Query       string
	Answer      string
	Summary     fn.Option[string]
	ShareID     string
	ShareURL    string
	Sources     domain.Sources
	Description string
}

func NewService(search Searcher, summarizer Summarizer, cache ResultCache, cfg Config, opts ...Option) (*Service, error) {
	if search == nil {
		return nil, errors.New("usecase: searcher must not be nil")
	}
	if summarizer == nil {
		return nil, errors.New("usecase: summarizer must not be nil")
	}
	if cache == nil {
		return nil, errors.New("usecase: result cache must not be nil")
	}
	if cfg.SummaryMaxChars <= 0 {
		cfg.SummaryMaxChars = summary.DefaultMaxChars
	}
	if cfg.MaxQueryLen <= 0 {
		cfg.MaxQueryLen = defaultMaxQuery
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = defaultUpstreamWait
	}
	s := &Service{
		search:     search,
		summarizer: summarizer,
		cache:      cache,
		cfg:        cfg,
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Query runs search, share, summarize and cache-write in order. Search and
// share failures abort the pipeline before anything is cached; summarization
// failures only degrade the description.
func (s *Service) Query(ctx context.Context, in QueryInput) (QueryOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return QueryOutput{}, newError(ErrorInvalidInput, "empty_query", nil)
	}
	if len([]rune(query)) > s.cfg.MaxQueryLen {
		return QueryOutput{}, newError(ErrorInvalidInput, "query_too_long", nil)
	}

	result, err := withRetryOnTimeout(ctx, s.cfg.UpstreamTimeout, func(ctx context.Context) (domain.SearchResponse, error) {
		return s.search.Search(ctx, query)
	})
	if err != nil {
		return QueryOutput{}, upstreamError("search", err)
	}

	share, err := withRetryOnTimeout(ctx, s.cfg.UpstreamTimeout, func(ctx context.Context) (domain.Share, error) {
		return s.search.CreateShare(ctx, query, result)
	})
	if err != nil {
		return QueryOutput{}, upstreamError("share", err)
	}

	summaryText := s.summarize(ctx, query, result.Answer, share.ID)

	s.cache.Put(share.ID, domain.CachedResult{
		ShareID:  share.ID,
		ShareURL: share.URL,
		Query:    query,
		Answer:   result.Answer,
		Summary:  summaryText,
		Sources:  result.Sources,
	})

	return QueryOutput{
		Query:       query,
		Answer:      result.Answer,
		Summary:     summaryText,
		ShareID:     share.ID,
		ShareURL:    share.URL,
		Sources:     result.Sources,
		Description: description(summaryText, result.Answer, s.cfg.SummaryMaxChars),
	}, nil
}

func (s *Service) summarize(ctx context.Context, query, answer, shareID string) fn.Option[string] {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()

	res := s.summarizer.Summarize(ctx, summary.Request{
		Query:    query,
		Answer:   answer,
		MaxChars: s.cfg.SummaryMaxChars,
	})
	switch res.Outcome {
	case summary.Summarized:
		return fn.Some(res.Text)
	case summary.Unavailable:
		s.log.Debug("summary unavailable, using raw answer", "share_id", shareID)
	default:
		s.log.Warn("summary generation failed, falling back to raw answer", "share_id", shareID, "err", res.Err)
	}
	return fn.None[string]()
}

func upstreamError(step string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrorTimeout, step+"_timeout", err)
	}
	return newError(ErrorUpstream, step+"_failed", err)
}

// withRetryOnTimeout runs call under its own timeout and retries exactly once
// if that timeout, and not the parent context, expired.
func withRetryOnTimeout[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return call(callCtx)
	}

	out, err := attempt()
	if err == nil || !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return out, err
	}
	return attempt()
}
