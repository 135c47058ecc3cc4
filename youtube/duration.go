package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidFormat = errors.New("invalid duration format")

type InvalidFormatError struct {
	Value string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid duration string: %s", e.Value)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

var durationRegexp = regexp.MustCompile(`(?i)PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseDuration converts a duration like PT1H30M15S into whole minutes.
// Leftover seconds are dropped. A bare "PT" is zero minutes.
func ParseDuration(duration string) (int, error) {
	matches := durationRegexp.FindStringSubmatch(duration)
	if matches == nil {
		return 0, &InvalidFormatError{Value: duration}
	}

	parts := [3]int{}
	for i, m := range matches[1:] {
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0, &InvalidFormatError{Value: duration}
		}
		parts[i] = n
	}
	hours, minutes, seconds := parts[0], parts[1], parts[2]

	return hours*60 + minutes + seconds/60, nil
}
