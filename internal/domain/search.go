package domain

// QueryType classifies how the search service answered a question.
type QueryType string

const (
	QueryFactual      QueryType = "factual"
	QueryInterpretive QueryType = "interpretive"
	QueryHybrid       QueryType = "hybrid"
)

// TranscriptSource is a transcript excerpt cited by an answer.
type TranscriptSource struct {
	EpisodeTitle   string  `json:"episodeTitle"`
	EpisodeNumber  *int    `json:"episodeNumber,omitempty"`
	Speakers       string  `json:"speakers"`
	StartTimestamp string  `json:"startTimestamp"`
	EndTimestamp   string  `json:"endTimestamp"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
}

// MetadataSource is an episode metadata record cited by an answer.
type MetadataSource struct {
	Film           string            `json:"film"`
	Season         int               `json:"season"`
	Episode        int               `json:"episode"`
	ReleaseDate    string            `json:"releaseDate"`
	Guest          *string           `json:"guest"`
	Reviewer       string            `json:"reviewer"`
	RelevantFields map[string]string `json:"relevantFields,omitempty"`
}

// Sources groups the citations backing an answer.
type Sources struct {
	Transcripts []TranscriptSource `json:"transcripts,omitempty"`
	Metadata    []MetadataSource   `json:"metadata,omitempty"`
}

// Empty reports whether no citations were returned.
func (s Sources) Empty() bool {
	return len(s.Transcripts) == 0 && len(s.Metadata) == 0
}

// SearchResponse is the payload returned by the search endpoint and posted
// back verbatim to the share endpoint.
type SearchResponse struct {
	Answer    string    `json:"answer"`
	QueryType QueryType `json:"queryType"`
	Sources   Sources   `json:"sources"`
}

// Share identifies a published answer.
type Share struct {
	ID  string
	URL string
}
