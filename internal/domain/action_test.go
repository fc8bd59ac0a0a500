package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		token string
		want  Action
	}{
		{"pdc_more:abc123", Action{Kind: ActionOpenMore, ShareID: "abc123"}},
		{"pdc_sources:abc123", Action{Kind: ActionShowSources, ShareID: "abc123"}},
		{"pdc_up:abc123", Action{Kind: ActionFeedbackUp, ShareID: "abc123"}},
		{"pdc_down:abc123", Action{Kind: ActionFeedbackDown, ShareID: "abc123"}},
		{"pdc_open:abc123", Action{Kind: ActionDeprecated, ShareID: "abc123"}},
		{"pdc_summary:abc123", Action{Kind: ActionDeprecated, ShareID: "abc123"}},
		{"pdc_down:", Action{Kind: ActionUnknown}},
		{"pdc_down", Action{Kind: ActionUnknown}},
		{"other:abc123", Action{Kind: ActionUnknown}},
		{"", Action{Kind: ActionUnknown}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseAction(tc.token), "token=%q", tc.token)
	}
}

func TestParseAction_KeepsColonsInShareID(t *testing.T) {
	a := ParseAction("pdc_up:a:b")
	require.Equal(t, ActionFeedbackUp, a.Kind)
	require.Equal(t, "a:b", a.ShareID)
}

func TestActionToken_RoundTrip(t *testing.T) {
	for _, kind := range []ActionKind{ActionOpenMore, ActionShowSources, ActionFeedbackUp, ActionFeedbackDown} {
		a := Action{Kind: kind, ShareID: "abc123"}
		require.Equal(t, a, ParseAction(a.Token()))
	}
	require.Empty(t, Action{Kind: ActionDeprecated, ShareID: "x"}.Token())
	require.Empty(t, Action{Kind: ActionUnknown}.Token())
}
