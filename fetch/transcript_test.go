package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ewintr.nl/yttoolkit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.uris...)
}

func (l *requestLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = nil
}

// newWatchServer serves page on /watch, with {{server}} replaced by the
// server url, and the given caption documents on their own paths.
func newWatchServer(t *testing.T, page string, captions map[string]string) (*httptest.Server, *requestLog) {
	t.Helper()
	requested := &requestLog{}
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.add(r.URL.RequestURI())
		if r.URL.Path == "/watch" {
			io.WriteString(w, strings.ReplaceAll(page, "{{server}}", srv.URL))
			return
		}
		doc, ok := captions[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, doc)
	}))
	t.Cleanup(srv.Close)

	return srv, requested
}

const (
	singleTrackPage = `<html><body><script>
var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"{{server}}/transcript","languageCode":"en"}]}}};
</script></body></html>`
	twoTrackPage = `<html><body><script>
"captionTracks":[{"baseUrl":"{{server}}/en-transcript","name":{"simpleText":"English"},"languageCode":"en"},{"baseUrl":"{{server}}/es-transcript","name":{"simpleText":"Spanish"},"languageCode":"es"}]
</script></body></html>`
)

func TestScraperTranscript(t *testing.T) {
	captions := map[string]string{
		"/transcript": `<?xml version="1.0" encoding="utf-8" ?>
<transcript>
  <text start="0.1" dur="1.5">Hello world</text>
  <text start="1.6" dur="2.0">This is a test</text>
</transcript>`,
		"/en-transcript":     `<transcript><text>English transcript</text></transcript>`,
		"/es-transcript":     `<transcript><text>Spanish transcript</text></transcript>`,
		"/sparse-transcript": `<transcript><text start="0" dur="1"/><text start="1" dur="1">hello</text><text start="2" dur="1"></text><text start="3" dur="1">world</text></transcript>`,
	}

	for _, tc := range []struct {
		name      string
		page      string
		lang      string
		expStatus model.TranscriptStatus
		expText   string
	}{
		{
			name:      "single track",
			page:      singleTrackPage,
			expStatus: model.TranscriptAvailable,
			expText:   "Hello world This is a test",
		},
		{
			name:      "preferred language",
			page:      twoTrackPage,
			lang:      "es",
			expStatus: model.TranscriptAvailable,
			expText:   "Spanish transcript",
		},
		{
			name:      "preferred language ignores case",
			page:      twoTrackPage,
			lang:      "ES",
			expStatus: model.TranscriptAvailable,
			expText:   "Spanish transcript",
		},
		{
			name:      "unknown language falls back to first",
			page:      twoTrackPage,
			lang:      "fr",
			expStatus: model.TranscriptAvailable,
			expText:   "English transcript",
		},
		{
			name:      "no language takes first",
			page:      twoTrackPage,
			expStatus: model.TranscriptAvailable,
			expText:   "English transcript",
		},
		{
			name:      "empty fragments",
			page:      `"captionTracks":[{"baseUrl":"{{server}}/sparse-transcript"}]`,
			expStatus: model.TranscriptAvailable,
			expText:   "hello world",
		},
		{
			name:      "no caption tracks marker",
			page:      `<html><body></body></html>`,
			expStatus: model.TranscriptNotAvailable,
			expText:   "Transcript not available",
		},
		{
			name:      "empty track list",
			page:      `"captionTracks":[]`,
			expStatus: model.TranscriptNotAvailable,
			expText:   "No caption tracks found",
		},
		{
			name:      "track without url",
			page:      `"captionTracks":[{"languageCode":"en"}]`,
			expStatus: model.TranscriptNotAvailable,
			expText:   "No transcript URL found",
		},
		{
			name:      "caption document missing",
			page:      `"captionTracks":[{"baseUrl":"{{server}}/gone"}]`,
			expStatus: model.TranscriptFailed,
			expText:   "Failed to fetch transcript: request failed with status code 404",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newWatchServer(t, tc.page, captions)
			scraper := NewScraper(srv.Client(), srv.URL+"/watch", testLogger())

			act, err := scraper.Transcript(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", tc.lang)
			require.NoError(t, err)
			assert.Equal(t, tc.expStatus, act.Status)
			assert.Equal(t, tc.expText, act.Text)
		})
	}
}

func TestScraperTranscriptRequests(t *testing.T) {
	captions := map[string]string{
		"/es-transcript": `<transcript><text>Spanish transcript</text></transcript>`,
	}
	srv, requested := newWatchServer(t, twoTrackPage, captions)
	scraper := NewScraper(srv.Client(), srv.URL+"/watch", testLogger())

	_, err := scraper.Transcript(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "es")
	require.NoError(t, err)
	assert.Equal(t, []string{"/watch?v=dQw4w9WgXcQ", "/es-transcript"}, requested.all())

	requested.reset()
	_, err = scraper.Transcript(context.Background(), "dQw4w9WgXcQ", "es")
	require.NoError(t, err)
	assert.Equal(t, "/watch?v=dQw4w9WgXcQ", requested.all()[0])
}

func TestScraperTranscriptBadTracks(t *testing.T) {
	srv, _ := newWatchServer(t, `"captionTracks":[{"baseUrl": 12}]`, nil)
	scraper := NewScraper(srv.Client(), srv.URL+"/watch", testLogger())

	act, err := scraper.Transcript(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, model.TranscriptNotAvailable, act.Status)
	assert.Contains(t, act.Text, "Failed to parse caption tracks:")
}

func TestScraperTranscriptNetworkError(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("network error")
		}),
	}
	scraper := NewScraper(client, "", testLogger())

	act, err := scraper.Transcript(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, model.TranscriptFailed, act.Status)
	assert.Contains(t, act.Text, "Failed to fetch transcript")
	assert.Contains(t, act.Text, "network error")
}

func TestScraperTranscriptEmptyReference(t *testing.T) {
	srv, requested := newWatchServer(t, singleTrackPage, nil)
	scraper := NewScraper(srv.Client(), srv.URL+"/watch", testLogger())

	act, err := scraper.Transcript(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, model.TranscriptFailed, act.Status)
	assert.Equal(t, "Failed to fetch transcript: invalid YouTube URL or video ID", act.Text)
	assert.Empty(t, requested.all())
}

func TestScraperTranscriptPageTooLarge(t *testing.T) {
	page := strings.Repeat(" ", maxPageSize) + `"captionTracks":[{"baseUrl":"{{server}}/transcript"}]`
	srv, _ := newWatchServer(t, page, nil)
	scraper := NewScraper(srv.Client(), srv.URL+"/watch", testLogger())

	act, err := scraper.Transcript(context.Background(), "dQw4w9WgXcQ", "")
	require.NoError(t, err)
	assert.Equal(t, model.TranscriptFailed, act.Status)
	assert.Equal(t, fmt.Sprintf("Failed to fetch transcript: response exceeds %d bytes", maxPageSize), act.Text)
}

func TestCaptionText(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		exp  string
	}{
		{
			name: "self-closing fragment first",
			doc:  `<transcript><text start="0" dur="1"/><text start="1" dur="1">hello</text><text start="2" dur="1">world</text></transcript>`,
			exp:  "hello world",
		},
		{
			name: "self-closing fragment between",
			doc:  `<transcript><text>one</text><text/><text>two</text><text>three</text></transcript>`,
			exp:  "one two three",
		},
		{
			name: "escaped entities",
			doc:  `<transcript><text>rock &amp; roll</text><text>it&#39;s</text></transcript>`,
			exp:  "rock & roll it's",
		},
		{
			name: "no fragments",
			doc:  `<transcript></transcript>`,
			exp:  "",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			act, err := captionText([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, tc.exp, act)
		})
	}
}

func TestSelectTrack(t *testing.T) {
	tracks := []model.CaptionTrack{
		{BaseURL: "a", LanguageCode: "en"},
		{BaseURL: "b", LanguageCode: "es"},
		{BaseURL: "c", LanguageCode: "es"},
	}
	assert.Equal(t, "b", selectTrack(tracks, "es").BaseURL)
	assert.Equal(t, "a", selectTrack(tracks, "nl").BaseURL)
	assert.Equal(t, "a", selectTrack(tracks, "").BaseURL)
}
