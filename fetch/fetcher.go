package fetch

import (
	"context"
	"fmt"

	"ewintr.nl/yttoolkit/model"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const MaxComments = 100

type Aggregator struct {
	transcripts TranscriptFetcher
	durations   DurationFetcher
	comments    CommentFetcher
	logger      *slog.Logger
}

func NewAggregator(transcripts TranscriptFetcher, durations DurationFetcher, comments CommentFetcher, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		transcripts: transcripts,
		durations:   durations,
		comments:    comments,
		logger:      logger,
	}
}

// VideoInfo fetches transcript, duration and comments at the same time. The
// first failure cancels the others and no partial result is returned.
// apiKey takes precedence over opts.APIKey. With neither set the fetchers
// use their credential store.
func (a *Aggregator) VideoInfo(ctx context.Context, ref string, opts model.Options, apiKey string) (model.VideoInfo, error) {
	if apiKey == "" {
		apiKey = opts.APIKey
	}
	a.logger.Info("fetching video info", slog.String("ref", ref))

	var info model.VideoInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		transcript, err := a.transcripts.Transcript(gctx, ref, opts.Lang)
		if err != nil {
			return err
		}
		info.Transcript = transcript.Text
		return nil
	})
	g.Go(func() error {
		duration, err := a.durations.Duration(gctx, ref, apiKey)
		if err != nil {
			return err
		}
		info.Duration = duration
		return nil
	})
	g.Go(func() error {
		comments, err := a.comments.Comments(gctx, ref, MaxComments, apiKey)
		if err != nil {
			return err
		}
		info.Comments = comments
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("failed to get video info", slog.String("ref", ref), slog.String("error", err.Error()))
		return model.VideoInfo{}, fmt.Errorf("failed to get video info: %w", err)
	}

	a.logger.Info("fetched video info", slog.String("ref", ref), slog.Int("duration", info.Duration), slog.Int("comments", len(info.Comments)))
	return info, nil
}
