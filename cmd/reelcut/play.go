package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/reelcut/internal/config"
	"github.com/abelbrown/reelcut/internal/feed"
	"github.com/abelbrown/reelcut/internal/logging"
	"github.com/abelbrown/reelcut/internal/media"
	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/otel"
	"github.com/abelbrown/reelcut/internal/ui"
)

const (
	probeTimeout = 5 * time.Second
	ringSize     = 512
)

func newPlayCmd(load loader) *cobra.Command {
	var specialty string
	var muted bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the feed",
		Long:  "Open the vertically paged feed. j/k or the wheel scroll, hold the mouse button to pause.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if specialty != "" {
				cfg.Feed.Specialty = specialty
			}
			if muted {
				cfg.Playback.StartMuted = true
			}
			return runPlay(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&specialty, "specialty", "s", "", "only show cuts of this specialty")
	cmd.Flags().BoolVarP(&muted, "muted", "m", false, "start every video muted")
	return cmd
}

func runPlay(ctx context.Context, cfg *config.Config) error {
	if err := logging.Init(cfg.LogDir(), version); err != nil {
		return err
	}
	defer logging.Close()

	f, err := os.OpenFile(eventLogPath(cfg), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	ring := otel.NewRingBuffer(ringSize)
	events := otel.NewLogger(f)
	events.SetRingBuffer(ring)
	defer events.Close()
	events.Lifecycle(otel.KindStartup, "reelcut "+version)

	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	pager := feed.New(src,
		feed.WithPageSize(cfg.Feed.PageSize),
		feed.WithFetchTimeout(cfg.FetchTimeout()),
		feed.WithCriterion(criterion(cfg)),
		feed.WithLocation(model.LocationFilter{Enabled: cfg.Location.Enabled, Sort: model.SortDistance}),
		feed.WithLogger(events),
	)

	app := ui.NewApp(ctx, ui.Deps{
		Pager:   pager,
		Geo:     geoProvider(cfg),
		Checker: media.NewProber(probeTimeout),
		Log:     events,
		Ring:    ring,
	}, ui.Settings{
		PrefetchDistance:    cfg.Feed.PrefetchDistance,
		VisibilityThreshold: cfg.Playback.VisibilityThreshold,
		WindowRadius:        cfg.Playback.WindowRadius,
		StartMuted:          cfg.Playback.StartMuted,
		HoldThreshold:       cfg.HoldThreshold(),
		LocationEnabled:     cfg.Location.Enabled,
	})

	logging.Info("starting feed", "source", cfg.Source.Kind, "specialty", cfg.Feed.Specialty)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err = program.Run()
	events.Lifecycle(otel.KindShutdown, "")
	if err != nil {
		logging.Error("program exited", "error", err)
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
