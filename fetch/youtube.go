package fetch

import (
	"context"
	"errors"
	"fmt"

	"ewintr.nl/yttoolkit/credential"
	"ewintr.nl/yttoolkit/model"
	"ewintr.nl/yttoolkit/youtube"
	"golang.org/x/exp/slog"
	"google.golang.org/api/googleapi"
	ytapi "google.golang.org/api/youtube/v3"
)

const (
	commentPageSize = 100
	replyPrefix     = "    - "
)

var ErrVideoNotFound = errors.New("video not found")

// Youtube fetches comments and durations through the Data API. The key is
// sent with every call, so one service can serve callers with different keys.
type Youtube struct {
	Client *ytapi.Service
	keys   *credential.Store
	logger *slog.Logger
}

func NewYoutube(client *ytapi.Service, keys *credential.Store, logger *slog.Logger) *Youtube {
	if keys == nil {
		keys = credential.Default()
	}

	return &Youtube{
		Client: client,
		keys:   keys,
		logger: logger,
	}
}

// Comments returns up to maxResults comments in thread order, each top level
// comment directly followed by its replies.
func (y *Youtube) Comments(ctx context.Context, ref string, maxResults int, apiKey string) ([]string, error) {
	id := youtube.ResolveID(ref)
	y.logger.Info("fetching comments", slog.String("video", string(id)), slog.Int("max", maxResults))

	comments, err := y.comments(ctx, id, maxResults, apiKey)
	if err != nil {
		y.logger.Error("failed to get comments", slog.String("video", string(id)), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	y.logger.Info("fetched comments", slog.String("video", string(id)), slog.Int("count", len(comments)))
	return comments, nil
}

func (y *Youtube) comments(ctx context.Context, id model.VideoID, maxResults int, apiKey string) ([]string, error) {
	if id == "" {
		return nil, youtube.ErrInvalidReference
	}
	comments := []string{}
	if maxResults <= 0 {
		return comments, nil
	}
	key, err := y.keys.Resolve(apiKey)
	if err != nil {
		return nil, err
	}

	pageToken := ""
	for {
		call := y.Client.CommentThreads.
			List([]string{"snippet", "replies"}).
			VideoId(string(id)).
			TextFormat("plainText").
			MaxResults(commentPageSize).
			Context(ctx)

		if pageToken != "" {
			call.PageToken(pageToken)
		}

		response, err := call.Do(googleapi.QueryParameter("key", key))
		if err != nil {
			return nil, err
		}
		if len(response.Items) == 0 {
			break
		}

		for _, thread := range response.Items {
			comments = append(comments, threadComments(thread)...)
			if len(comments) >= maxResults {
				break
			}
		}

		pageToken = response.NextPageToken
		if pageToken == "" || len(comments) >= maxResults {
			break
		}
	}

	if len(comments) > maxResults {
		comments = comments[:maxResults]
	}

	return comments, nil
}

func threadComments(thread *ytapi.CommentThread) []string {
	comments := []string{}
	if thread.Snippet != nil && thread.Snippet.TopLevelComment != nil && thread.Snippet.TopLevelComment.Snippet != nil {
		comments = append(comments, thread.Snippet.TopLevelComment.Snippet.TextDisplay)
	}
	if thread.Replies == nil {
		return comments
	}
	for _, reply := range thread.Replies.Comments {
		if reply.Snippet == nil {
			continue
		}
		comments = append(comments, replyPrefix+reply.Snippet.TextDisplay)
	}

	return comments
}

// Duration returns the length of the video in whole minutes.
func (y *Youtube) Duration(ctx context.Context, ref, apiKey string) (int, error) {
	id := youtube.ResolveID(ref)
	y.logger.Info("fetching duration", slog.String("video", string(id)))

	minutes, err := y.duration(ctx, id, apiKey)
	if err != nil {
		y.logger.Error("failed to get video duration", slog.String("video", string(id)), slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to get video duration: %w", err)
	}

	return minutes, nil
}

func (y *Youtube) duration(ctx context.Context, id model.VideoID, apiKey string) (int, error) {
	if id == "" {
		return 0, youtube.ErrInvalidReference
	}
	key, err := y.keys.Resolve(apiKey)
	if err != nil {
		return 0, err
	}

	response, err := y.Client.Videos.
		List([]string{"contentDetails"}).
		Id(string(id)).
		Context(ctx).
		Do(googleapi.QueryParameter("key", key))
	if err != nil {
		return 0, err
	}
	if len(response.Items) == 0 || response.Items[0].ContentDetails == nil {
		return 0, ErrVideoNotFound
	}

	return youtube.ParseDuration(response.Items[0].ContentDetails.Duration)
}
