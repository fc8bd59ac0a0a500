package handler

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"pdc-bot/internal/domain"
	"pdc-bot/internal/render"
	"pdc-bot/internal/usecase"
)

const (
	CommandName = "pdc"
	optionQuery = "query"

	maxQueryOption = 300
)

// UseCase is the subset of usecase.Service the handler drives.
type UseCase interface {
	Query(ctx context.Context, in usecase.QueryInput) (usecase.QueryOutput, error)
	Control(ctx context.Context, in usecase.ControlInput) usecase.ControlOutput
	RecordFeedback(ctx context.Context, rec domain.FeedbackRecord) error
}

// Responder is the reply surface of a Discord session. *discordgo.Session
// satisfies it.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Handler struct {
	uc  UseCase
	log *slog.Logger
}

func NewHandler(uc UseCase, logger *slog.Logger) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uc: uc, log: logger}, nil
}

// Commands returns the slash commands served by Handle.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{{
		Name:        CommandName,
		Description: "Search the Escape Hatch podcast transcripts",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optionQuery,
			Description: "What do you want to know?",
			Required:    true,
			MaxLength:   maxQueryOption,
		}},
	}}
}

// replyState tracks what has already been sent for one interaction, since
// Discord accepts a single initial response.
type replyState struct {
	i        *discordgo.Interaction
	r        Responder
	deferred bool
	replied  bool
}

// Handle dispatches one interaction. It never panics and reports failures to
// the user at most once.
func (h *Handler) Handle(ctx context.Context, r Responder, ic *discordgo.InteractionCreate) {
	if ic == nil || ic.Interaction == nil {
		return
	}
	log := h.log.With("correlation_id", uuid.NewString(), "interaction_id", ic.ID)
	st := &replyState{i: ic.Interaction, r: r}

	defer func() {
		if p := recover(); p != nil {
			log.Error("interaction handler panicked", "panic", p, "stack", string(debug.Stack()))
			h.replyError(log, st, "Unexpected error")
		}
	}()

	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		data := ic.ApplicationCommandData()
		if data.Name != CommandName {
			return
		}
		h.handleCommand(ctx, log, st, queryOption(data))
	case discordgo.InteractionMessageComponent:
		h.handleControl(ctx, log, st, ic)
	}
}

func (h *Handler) handleCommand(ctx context.Context, log *slog.Logger, st *replyState, query string) {
	log = log.With("command", CommandName)
	if err := st.r.InteractionRespond(st.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error("failed to defer reply", "err", err)
		return
	}
	st.deferred = true

	out, err := h.uc.Query(ctx, usecase.QueryInput{Query: query})
	if err != nil {
		log.Error("query failed", "err", err)
		h.replyError(log, st, usecase.UserMessage(err))
		return
	}

	embed, components := render.Result(out)
	if _, err := st.r.InteractionResponseEdit(st.i, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}); err != nil {
		log.Error("failed to send result", "share_id", out.ShareID, "err", err)
		return
	}
	log.Info("query answered", "share_id", out.ShareID)
}

func (h *Handler) handleControl(ctx context.Context, log *slog.Logger, st *replyState, ic *discordgo.InteractionCreate) {
	action := domain.ParseAction(ic.MessageComponentData().CustomID)
	log = log.With("action", action.Kind.String(), "share_id", action.ShareID)

	out := h.uc.Control(ctx, usecase.ControlInput{
		Action:    action,
		User:      interactionUser(ic.Interaction),
		GuildID:   ic.GuildID,
		ChannelID: ic.ChannelID,
	})

	var content string
	switch out.Kind {
	case usecase.ReplyNone:
		log.Debug("ignoring control")
		return
	case usecase.ReplyMore:
		content = render.MoreText(out.Result)
	case usecase.ReplySources:
		content = render.SourcesText(out.Result)
	default:
		content = out.Text
	}

	if err := h.replyEphemeral(st, content); err != nil {
		log.Error("failed to reply to control", "err", err)
		return
	}

	out.Feedback.WhenSome(func(rec domain.FeedbackRecord) {
		// Persistence failures are logged by the use case; the
		// acknowledgment above stands.
		_ = h.uc.RecordFeedback(ctx, rec)
	})
}

func (h *Handler) replyEphemeral(st *replyState, content string) error {
	err := st.r.InteractionRespond(st.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		st.replied = true
	}
	return err
}

// replyError edits the existing reply when one was sent or deferred and
// sends a private reply otherwise.
func (h *Handler) replyError(log *slog.Logger, st *replyState, message string) {
	if st.deferred || st.replied {
		empty := []discordgo.MessageComponent{}
		if _, err := st.r.InteractionResponseEdit(st.i, &discordgo.WebhookEdit{
			Content:    &message,
			Embeds:     &[]*discordgo.MessageEmbed{},
			Components: &empty,
		}); err != nil {
			log.Error("failed to edit reply with error", "err", err)
		}
		return
	}
	if err := h.replyEphemeral(st, message); err != nil {
		log.Error("failed to send error reply", "err", err)
	}
}

func queryOption(data discordgo.ApplicationCommandInteractionData) string {
	for _, opt := range data.Options {
		if opt.Name == optionQuery && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func interactionUser(i *discordgo.Interaction) usecase.User {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return usecase.User{}
	}
	tag := u.Username
	if u.Discriminator != "" && u.Discriminator != "0" {
		tag += "#" + u.Discriminator
	}
	return usecase.User{ID: u.ID, Tag: tag}
}
