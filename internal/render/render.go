// Package render turns usecase results into Discord message payloads.
package render

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pdc-bot/internal/domain"
	"pdc-bot/internal/textutil"
	"pdc-bot/internal/usecase"
)

const (
	embedColor     = 0x5865f2
	footerText     = "Escape Hatch Podcast Search"
	maxTitleChars  = 256
	maxContentRune = 2000
	maxSourceItems = 5
	maxExcerpt     = 160

	msgNoSources = "No sources were returned for this answer."
)

// Result builds the embed and buttons for a fresh answer.
func Result(out usecase.QueryOutput) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       textutil.Trim(out.Query, maxTitleChars),
		Description: out.Description,
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: footerText},
	}
	return embed, []discordgo.MessageComponent{Buttons(out.ShareID, out.ShareURL)}
}

// Buttons is the single action row attached to every answer.
func Buttons(shareID, shareURL string) discordgo.ActionsRow {
	token := func(kind domain.ActionKind) string {
		return domain.Action{Kind: kind, ShareID: shareID}.Token()
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Open full answer", Style: discordgo.LinkButton, URL: shareURL},
		discordgo.Button{Label: "More", Style: discordgo.SecondaryButton, CustomID: token(domain.ActionOpenMore)},
		discordgo.Button{Label: "Sources", Style: discordgo.SecondaryButton, CustomID: token(domain.ActionShowSources)},
		discordgo.Button{Label: "👍", Style: discordgo.SecondaryButton, CustomID: token(domain.ActionFeedbackUp)},
		discordgo.Button{Label: "👎", Style: discordgo.SecondaryButton, CustomID: token(domain.ActionFeedbackDown)},
	}}
}

// MoreText is the private reply to the "More" button: as much of the answer
// as fits in one message, followed by the share link.
func MoreText(r domain.CachedResult) string {
	link := "\n\nFull answer: " + r.ShareURL
	budget := maxContentRune - len([]rune(link))
	return textutil.Trim(r.Answer, budget) + link
}

// SourcesText lists the citations of a cached answer.
func SourcesText(r domain.CachedResult) string {
	if r.Sources.Empty() {
		return msgNoSources
	}

	var b strings.Builder
	if n := len(r.Sources.Transcripts); n > 0 {
		b.WriteString("**Transcripts**\n")
		for _, s := range r.Sources.Transcripts[:min(n, maxSourceItems)] {
			b.WriteString("• " + transcriptLine(s) + "\n")
		}
		if n > maxSourceItems {
			fmt.Fprintf(&b, "…and %d more\n", n-maxSourceItems)
		}
	}
	if n := len(r.Sources.Metadata); n > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**Episodes**\n")
		for _, s := range r.Sources.Metadata[:min(n, maxSourceItems)] {
			b.WriteString("• " + metadataLine(s) + "\n")
		}
		if n > maxSourceItems {
			fmt.Fprintf(&b, "…and %d more\n", n-maxSourceItems)
		}
	}
	return textutil.Trim(strings.TrimRight(b.String(), "\n"), maxContentRune)
}

func transcriptLine(s domain.TranscriptSource) string {
	title := s.EpisodeTitle
	if s.EpisodeNumber != nil {
		title = fmt.Sprintf("%s (#%d)", title, *s.EpisodeNumber)
	}
	parts := []string{title}
	if s.StartTimestamp != "" {
		span := s.StartTimestamp
		if s.EndTimestamp != "" {
			span += "–" + s.EndTimestamp
		}
		parts = append(parts, span)
	}
	if s.Speakers != "" {
		parts = append(parts, s.Speakers)
	}
	line := strings.Join(parts, " · ")
	if excerpt := textutil.NormalizeWhitespace(s.Text); excerpt != "" {
		line += "\n  > " + textutil.Trim(excerpt, maxExcerpt)
	}
	return line
}

func metadataLine(s domain.MetadataSource) string {
	parts := []string{s.Film, fmt.Sprintf("S%d E%d", s.Season, s.Episode)}
	if s.ReleaseDate != "" {
		parts = append(parts, s.ReleaseDate)
	}
	people := s.Reviewer
	if s.Guest != nil && *s.Guest != "" {
		people += " with " + *s.Guest
	}
	if people != "" {
		parts = append(parts, people)
	}
	return strings.Join(parts, " · ")
}
