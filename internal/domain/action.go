package domain

import "strings"

// ActionKind is the closed set of behaviors a button can request.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionOpenMore
	ActionShowSources
	ActionFeedbackUp
	ActionFeedbackDown
	ActionDeprecated
)

const (
	prefixMore    = "pdc_more"
	prefixSources = "pdc_sources"
	prefixUp      = "pdc_up"
	prefixDown    = "pdc_down"
)

// Buttons from earlier layouts can still sit on old messages.
var deprecatedPrefixes = map[string]struct{}{
	"pdc_open":    {},
	"pdc_summary": {},
}

func (k ActionKind) String() string {
	switch k {
	case ActionOpenMore:
		return "open_more"
	case ActionShowSources:
		return "show_sources"
	case ActionFeedbackUp:
		return "feedback_up"
	case ActionFeedbackDown:
		return "feedback_down"
	case ActionDeprecated:
		return "deprecated"
	default:
		return "unknown"
	}
}

// Action is a decoded button token.
type Action struct {
	Kind    ActionKind
	ShareID string
}

// ParseAction decodes a "prefix:shareId" token. Anything that does not match
// a known prefix with a non-empty id decodes to ActionUnknown.
func ParseAction(token string) Action {
	prefix, shareID, ok := strings.Cut(token, ":")
	shareID = strings.TrimSpace(shareID)
	if !ok || shareID == "" {
		return Action{Kind: ActionUnknown}
	}

	var kind ActionKind
	switch prefix {
	case prefixMore:
		kind = ActionOpenMore
	case prefixSources:
		kind = ActionShowSources
	case prefixUp:
		kind = ActionFeedbackUp
	case prefixDown:
		kind = ActionFeedbackDown
	default:
		if _, old := deprecatedPrefixes[prefix]; old {
			kind = ActionDeprecated
		} else {
			return Action{Kind: ActionUnknown}
		}
	}
	return Action{Kind: kind, ShareID: shareID}
}

// Token encodes the action back into a button custom id. Deprecated and
// unknown actions have no token.
func (a Action) Token() string {
	var prefix string
	switch a.Kind {
	case ActionOpenMore:
		prefix = prefixMore
	case ActionShowSources:
		prefix = prefixSources
	case ActionFeedbackUp:
		prefix = prefixUp
	case ActionFeedbackDown:
		prefix = prefixDown
	default:
		return ""
	}
	return prefix + ":" + a.ShareID
}
