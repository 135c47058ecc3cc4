package fetch

import (
	"context"

	"ewintr.nl/yttoolkit/model"
)

// TranscriptFetcher reports a missing or failed transcript through the
// returned model.Transcript. A non nil error aborts an aggregate fetch.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, ref, lang string) (model.Transcript, error)
}

type DurationFetcher interface {
	Duration(ctx context.Context, ref, apiKey string) (int, error)
}

type CommentFetcher interface {
	Comments(ctx context.Context, ref string, maxResults int, apiKey string) ([]string, error)
}
