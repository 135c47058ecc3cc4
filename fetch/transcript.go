package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"ewintr.nl/yttoolkit/model"
	"ewintr.nl/yttoolkit/youtube"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/exp/slog"
	"golang.org/x/net/html"
)

const (
	WatchURL = "https://www.youtube.com/watch"

	maxPageSize = 8 * 1024 * 1024
)

const (
	msgNotAvailable = "Transcript not available"
	msgNoTracks     = "No caption tracks found"
	msgNoTrackURL   = "No transcript URL found"
)

var captionTracksRegexp = regexp.MustCompile(`"captionTracks":\s*(\[.*?\])`)

// Scraper gets transcripts from the caption tracks listed on the watch page.
type Scraper struct {
	client   *http.Client
	watchURL string
	logger   *slog.Logger
}

func NewScraper(client *http.Client, watchURL string, logger *slog.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if watchURL == "" {
		watchURL = WatchURL
	}

	return &Scraper{
		client:   client,
		watchURL: watchURL,
		logger:   logger,
	}
}

// Transcript never returns an error. Missing captions and failed requests
// both end up in the returned status and text.
func (s *Scraper) Transcript(ctx context.Context, ref, lang string) (model.Transcript, error) {
	id := youtube.ResolveID(ref)
	s.logger.Info("fetching transcript", slog.String("video", string(id)), slog.String("lang", lang))

	transcript, err := s.transcript(ctx, id, lang)
	if err != nil {
		s.logger.Error("failed to fetch transcript", slog.String("video", string(id)), slog.String("error", err.Error()))
		return model.Transcript{
			Status: model.TranscriptFailed,
			Text:   fmt.Sprintf("Failed to fetch transcript: %v", err),
		}, nil
	}
	if transcript.Status == model.TranscriptNotAvailable {
		s.logger.Info("no transcript", slog.String("video", string(id)), slog.String("reason", transcript.Text))
	}

	return transcript, nil
}

func (s *Scraper) transcript(ctx context.Context, id model.VideoID, lang string) (model.Transcript, error) {
	if id == "" {
		return model.Transcript{}, youtube.ErrInvalidReference
	}

	page, err := s.get(ctx, s.watchURL+"?"+url.Values{"v": {string(id)}}.Encode())
	if err != nil {
		return model.Transcript{}, err
	}

	match := captionTracksRegexp.FindSubmatch(page)
	if match == nil {
		return notAvailable(msgNotAvailable), nil
	}
	var tracks []model.CaptionTrack
	if err := json.Unmarshal(match[1], &tracks); err != nil {
		return notAvailable(fmt.Sprintf("Failed to parse caption tracks: %v", err)), nil
	}
	if len(tracks) == 0 {
		return notAvailable(msgNoTracks), nil
	}

	track := selectTrack(tracks, lang)
	if track.BaseURL == "" {
		return notAvailable(msgNoTrackURL), nil
	}

	captions, err := s.get(ctx, track.BaseURL)
	if err != nil {
		return model.Transcript{}, err
	}
	text, err := captionText(captions)
	if err != nil {
		return model.Transcript{}, err
	}

	return model.Transcript{
		Status: model.TranscriptAvailable,
		Text:   text,
	}, nil
}

func (s *Scraper) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxPageSize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxPageSize)
	}

	return body, nil
}

// selectTrack picks the first track in lang, or the first track when there
// is none.
func selectTrack(tracks []model.CaptionTrack, lang string) model.CaptionTrack {
	if lang != "" {
		for _, track := range tracks {
			if strings.EqualFold(track.LanguageCode, lang) {
				return track
			}
		}
	}

	return tracks[0]
}

// captionText joins the contents of all <text> fragments in a timedtext
// document. The html parser nests the fragments that follow a self-closing
// <text/>, so only the direct text nodes of each fragment are taken.
func captionText(doc []byte) (string, error) {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("could not parse captions: %w", err)
	}

	fragments := []string{}
	root.Find("text").Each(func(_ int, fragment *goquery.Selection) {
		text := strings.TrimSpace(fragment.Contents().FilterFunction(func(_ int, node *goquery.Selection) bool {
			return node.Get(0).Type == html.TextNode
		}).Text())
		if text != "" {
			fragments = append(fragments, text)
		}
	})

	return strings.TrimSpace(strings.Join(fragments, " ")), nil
}

func notAvailable(reason string) model.Transcript {
	return model.Transcript{
		Status: model.TranscriptNotAvailable,
		Text:   reason,
	}
}
