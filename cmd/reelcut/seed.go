package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/reelcut/internal/config"
	"github.com/abelbrown/reelcut/internal/fetch"
	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/store"
)

const seedWorkers = 4

// itemSaver is a catalogue that accepts imported items.
type itemSaver interface {
	SaveItems(ctx context.Context, items []model.FeedItem) (int, error)
}

func newSeedCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file>...",
		Short: "Import JSON item files into the catalogue",
		Long: "Read JSON arrays of feed items and insert them into the configured sqlite or postgres source.\n" +
			"Items without an id get a random UUID. Items already present are skipped.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			items, err := readItemFiles(ctx, args, time.Now())
			if err != nil {
				return err
			}

			saver, closeSaver, err := openSaver(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeSaver()

			n, err := saver.SaveItems(ctx, items)
			if err != nil {
				return fmt.Errorf("save items: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d items into %s\n", n, len(items), cfg.Source.Kind)
			return nil
		},
	}
	return cmd
}

// readItemFiles parses every file concurrently. Items keep file order.
func readItemFiles(ctx context.Context, paths []string, now time.Time) ([]model.FeedItem, error) {
	perFile := make([][]model.FeedItem, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items, err := readItemFile(path, now)
			if err != nil {
				return err
			}
			perFile[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.FeedItem
	for _, items := range perFile {
		all = append(all, items...)
	}
	return all, nil
}

func readItemFile(path string, now time.Time) ([]model.FeedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []model.FeedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		if items[i].MediaURL == "" {
			return nil, fmt.Errorf("%s: item %d has no media_url", path, i)
		}
	}
	return items, nil
}

// openSaver opens the configured catalogue for writing.
func openSaver(ctx context.Context, cfg *config.Config) (itemSaver, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceSQLite:
		src, closeSrc, err := openSource(ctx, cfg)
		if err != nil {
			return nil, closeSrc, err
		}
		return src.(*store.Store), closeSrc, nil

	case config.SourcePostgres:
		pg, err := fetch.OpenPostgres(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, func() {}, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, func() {}, err
		}
		return pg, pg.Close, nil
	}
	return nil, func() {}, fmt.Errorf("seed needs a sqlite or postgres source, not %s", cfg.Source.Kind)
}
