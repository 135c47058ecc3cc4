// Package youtube holds the parsing helpers shared by the fetchers: video ids
// out of the many URL shapes YouTube uses, and ISO-8601 durations as reported
// by the Data API.
package youtube

import (
	"errors"
	"regexp"

	"ewintr.nl/yttoolkit/model"
)

var ErrInvalidReference = errors.New("invalid YouTube URL or video ID")

var videoIDRegexp = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID returns the 11 character id from a watch, short, embed or
// /v/ link. A bare id is not a link and yields "".
func ExtractVideoID(url string) model.VideoID {
	match := videoIDRegexp.FindStringSubmatch(url)
	if len(match) < 2 {
		return ""
	}

	return model.VideoID(match[1])
}

// ResolveID extracts the id from ref, or uses ref as is when it is not a
// recognized link.
func ResolveID(ref string) model.VideoID {
	if id := ExtractVideoID(ref); id != "" {
		return id
	}

	return model.VideoID(ref)
}
