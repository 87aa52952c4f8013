package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"unistream/internal/media"
	"unistream/internal/provider"
	"unistream/internal/ref"
	"unistream/internal/subtitle"
	"unistream/internal/ui"
)

// searchRun is the default command: unistream <query>
func searchRun(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if query == "" {
		var err error
		query, err = ui.Input("Search")
		if err != nil {
			return fmt.Errorf("no search query provided: %w", err)
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logrus.WithField("query", query).Debug("searching")

	results, err := a.catalog.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no results for %q", query)
	}

	if !ui.Interactive() {
		return printResults(cmd.OutOrStdout(), results)
	}

	idx, err := ui.Select("Title", ui.ResultItems(results))
	if err != nil {
		return err
	}
	return a.resolveTitle(ctx, cmd.OutOrStdout(), results[idx].ID)
}

// resolveTitle walks details -> season -> episode and prints the streams.
func (a *app) resolveTitle(ctx context.Context, w io.Writer, id string) error {
	details, err := a.catalog.Details(ctx, id)
	if err != nil {
		return fmt.Errorf("getting details: %w", err)
	}
	if len(details.Seasons) == 0 {
		return fmt.Errorf("no seasons found for %s", details.Title)
	}

	seasonIdx := 0
	if len(details.Seasons) > 1 {
		seasonItems := lo.Map(details.Seasons, func(s media.Season, _ int) string { return s.Title })
		if seasonIdx, err = ui.Select("Season", seasonItems); err != nil {
			return err
		}
	}
	season := details.Seasons[seasonIdx]
	if len(season.Episodes) == 0 {
		return fmt.Errorf("no episodes found in %s", season.Title)
	}

	episodeIdx := 0
	if len(season.Episodes) > 1 {
		episodeItems := lo.Map(season.Episodes, func(e media.Episode, _ int) string { return e.Title })
		if episodeIdx, err = ui.Select("Episode", episodeItems); err != nil {
			return err
		}
	}
	episode := season.Episodes[episodeIdx]

	logrus.WithFields(logrus.Fields{"title": details.Title, "season": season.Number, "episode": episode.Number}).
		Debug("selected")

	return a.printStreams(ctx, w, episode.Ref, "")
}

// printStreams resolves token in the mode chosen by --all and writes the result.
func (a *app) printStreams(ctx context.Context, w io.Writer, token string, exclude provider.Name) error {
	r, err := ref.Parse(token)
	if err != nil {
		return err
	}

	var streams []media.Stream
	if flagAll {
		streams, err = a.engine.AllMergedRef(ctx, r, exclude)
	} else {
		streams, err = a.engine.FirstAvailableRef(ctx, r, cfg.PreferredProvider())
	}
	if err != nil {
		return err
	}
	if len(streams) == 0 {
		fmt.Fprintln(os.Stderr, "No streams found.")
	}

	lang := subsLanguage()
	streams = subtitle.Apply(streams, lang)

	if flagJSON {
		return writeJSON(w, streams)
	}
	ui.RenderStreams(w, streams, lang)
	return nil
}

func printResults(w io.Writer, results []media.SearchResult) error {
	if flagJSON {
		return writeJSON(w, results)
	}
	ui.RenderResults(w, results)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// isCancel reports whether err is a user abort that should exit quietly.
func isCancel(err error) bool {
	return errors.Is(err, ui.ErrCancelled)
}
