package model

import (
	"encoding/json"
	"strings"
)

type TranscriptStatus string

const (
	TranscriptAvailable    TranscriptStatus = "available"
	TranscriptNotAvailable TranscriptStatus = "not_available"
	TranscriptFailed       TranscriptStatus = "failed"
)

// Transcript is the outcome of a transcript fetch. Text holds the transcript
// itself when Status is TranscriptAvailable and a readable explanation
// otherwise.
type Transcript struct {
	Status TranscriptStatus `json:"status"`
	Text   string           `json:"transcript"`
}

type CaptionTrack struct {
	BaseURL      string    `json:"baseUrl"`
	LanguageCode string    `json:"languageCode,omitempty"`
	Name         TrackName `json:"name,omitempty"`
}

// TrackName accepts the shapes the watch page uses for a track label: a plain
// string, {"simpleText": ...} or {"runs": [{"text": ...}]}.
type TrackName string

func (n *TrackName) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*n = TrackName(plain)
		return nil
	}

	var label struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	if label.SimpleText != "" {
		*n = TrackName(label.SimpleText)
		return nil
	}
	var sb strings.Builder
	for _, run := range label.Runs {
		sb.WriteString(run.Text)
	}
	*n = TrackName(sb.String())

	return nil
}
