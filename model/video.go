package model

type VideoID string

type VideoInfo struct {
	Transcript string   `json:"transcript"`
	Duration   int      `json:"duration"`
	Comments   []string `json:"comments"`
}

type Options struct {
	Lang   string
	APIKey string
}
