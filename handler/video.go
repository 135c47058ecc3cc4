package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ewintr.nl/yttoolkit/credential"
	"ewintr.nl/yttoolkit/fetch"
	"ewintr.nl/yttoolkit/model"
	"ewintr.nl/yttoolkit/youtube"
	"golang.org/x/exp/slog"
)

// VideoAPI serves
//
//	GET /{ref}             transcript, duration and comments
//	GET /{ref}/transcript
//	GET /{ref}/duration
//	GET /{ref}/comments    optional ?max=N
//
// A full link can be passed as ?ref= instead of the first path component.
// ?lang= selects the caption language and ?key= the api key.
type VideoAPI struct {
	transcripts fetch.TranscriptFetcher
	durations   fetch.DurationFetcher
	comments    fetch.CommentFetcher
	info        *fetch.Aggregator
	logger      *slog.Logger
}

func NewVideoAPI(transcripts fetch.TranscriptFetcher, durations fetch.DurationFetcher, comments fetch.CommentFetcher, logger *slog.Logger) *VideoAPI {
	return &VideoAPI{
		transcripts: transcripts,
		durations:   durations,
		comments:    comments,
		info:        fetch.NewAggregator(transcripts, durations, comments, logger),
		logger:      logger,
	}
}

func (v *VideoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	head, tail := ShiftPath(r.URL.Path)
	ref, field := r.URL.Query().Get("ref"), head
	if ref == "" {
		ref = head
		field, _ = ShiftPath(tail)
	}

	switch {
	case r.Method != http.MethodGet:
		Error(w, http.StatusMethodNotAllowed, "method not allowed", fmt.Errorf("method %s is not supported", r.Method))
	case ref == "":
		Error(w, http.StatusBadRequest, "missing video reference", errors.New("pass a video id in the path or a link as ?ref="))
	case field == "":
		v.VideoInfo(w, r, ref)
	case field == "transcript":
		v.Transcript(w, r, ref)
	case field == "duration":
		v.Duration(w, r, ref)
	case field == "comments":
		v.Comments(w, r, ref)
	default:
		Error(w, http.StatusNotFound, "not found", fmt.Errorf("method %s with subpath %q was not registered in the video api", r.Method, field))
	}
}

func (v *VideoAPI) VideoInfo(w http.ResponseWriter, r *http.Request, ref string) {
	q := r.URL.Query()
	info, err := v.info.VideoInfo(r.Context(), ref, model.Options{Lang: q.Get("lang"), APIKey: q.Get("key")}, "")
	if err != nil {
		v.returnErr(r.Context(), w, errorStatus(err), "could not get video info", err)
		return
	}

	JSON(w, http.StatusOK, info)
}

func (v *VideoAPI) Transcript(w http.ResponseWriter, r *http.Request, ref string) {
	transcript, err := v.transcripts.Transcript(r.Context(), ref, r.URL.Query().Get("lang"))
	if err != nil {
		v.returnErr(r.Context(), w, errorStatus(err), "could not get transcript", err)
		return
	}

	JSON(w, http.StatusOK, transcript)
}

func (v *VideoAPI) Duration(w http.ResponseWriter, r *http.Request, ref string) {
	duration, err := v.durations.Duration(r.Context(), ref, r.URL.Query().Get("key"))
	if err != nil {
		v.returnErr(r.Context(), w, errorStatus(err), "could not get duration", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		Duration int `json:"duration"`
	}{
		Duration: duration,
	})
}

func (v *VideoAPI) Comments(w http.ResponseWriter, r *http.Request, ref string) {
	q := r.URL.Query()
	maxResults := fetch.MaxComments
	if q.Has("max") {
		var err error
		maxResults, err = strconv.Atoi(q.Get("max"))
		if err != nil || maxResults < 0 {
			Error(w, http.StatusBadRequest, "invalid max", fmt.Errorf("max must be a non negative number, got %q", q.Get("max")))
			return
		}
	}

	comments, err := v.comments.Comments(r.Context(), ref, maxResults, q.Get("key"))
	if err != nil {
		v.returnErr(r.Context(), w, errorStatus(err), "could not get comments", err)
		return
	}

	JSON(w, http.StatusOK, struct {
		Comments []string `json:"comments"`
	}{
		Comments: comments,
	})
}

func (v *VideoAPI) returnErr(_ context.Context, w http.ResponseWriter, status int, message string, err error, details ...any) {
	v.logger.Error(message, slog.String("err", err.Error()), slog.String("details", fmt.Sprintf("%+v", details)))
	Error(w, status, message, err, details...)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, fetch.ErrVideoNotFound):
		return http.StatusNotFound
	case errors.Is(err, credential.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, youtube.ErrInvalidReference):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
