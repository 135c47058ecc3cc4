package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"ewintr.nl/yttoolkit/credential"
	"ewintr.nl/yttoolkit/fetch"
	"ewintr.nl/yttoolkit/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetDefault("api_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("fetch_timeout", "30s")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "yttoolkit",
		Short:        "Get transcripts, durations and comments of YouTube videos",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("api-key", "", "YouTube Data API key (env YOUTUBE_API_KEY)")
	root.PersistentFlags().String("lang", "", "preferred caption language (env TRANSCRIPT_LANG)")
	root.PersistentFlags().String("log-level", "info", "debug, info, warn or error (env LOG_LEVEL)")
	v.BindPFlag("youtube_api_key", root.PersistentFlags().Lookup("api-key"))
	v.BindPFlag("transcript_lang", root.PersistentFlags().Lookup("lang"))
	v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		infoCmd(v),
		transcriptCmd(v),
		durationCmd(v),
		commentsCmd(v),
		serveCmd(v),
	)

	return root
}

type app struct {
	logger  *slog.Logger
	scraper *fetch.Scraper
	youtube *fetch.Youtube
	info    *fetch.Aggregator
	lang    string
}

func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if key := v.GetString("youtube_api_key"); key != "" {
		credential.SetKey(key)
	}

	client := &http.Client{Timeout: v.GetDuration("fetch_timeout")}
	ytClient, err := ytapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create youtube service: %w", err)
	}

	scraper := fetch.NewScraper(client, v.GetString("watch_url"), logger)
	yt := fetch.NewYoutube(ytClient, credential.Default(), logger)

	return &app{
		logger:  logger,
		scraper: scraper,
		youtube: yt,
		info:    fetch.NewAggregator(scraper, yt, yt, logger),
		lang:    v.GetString("transcript_lang"),
	}, nil
}

func infoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "info <url or id>",
		Short: "Print transcript, duration and comments as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			info, err := a.info.VideoInfo(cmd.Context(), args[0], model.Options{Lang: a.lang}, "")
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}
}

func transcriptCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <url or id>",
		Short: "Print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			transcript, err := a.scraper.Transcript(cmd.Context(), args[0], a.lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), transcript.Text)
			if transcript.Status == model.TranscriptFailed {
				return errors.New("could not fetch transcript")
			}
			return nil
		},
	}
}

func durationCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "duration <url or id>",
		Short: "Print the duration in minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			minutes, err := a.youtube.Duration(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), minutes)
			return nil
		},
	}
}

func commentsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <url or id>",
		Short: "Print comments as a json array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			maxResults, err := cmd.Flags().GetInt("max")
			if err != nil {
				return err
			}
			comments, err := a.youtube.Comments(cmd.Context(), args[0], maxResults, "")
			if err != nil {
				return err
			}
			return printJSON(cmd, comments)
		},
	}
	cmd.Flags().Int("max", fetch.MaxComments, "maximum number of comments")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
