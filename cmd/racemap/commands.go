package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amanmaurya7/f1-map/internal/config"
	"github.com/amanmaurya7/f1-map/internal/logging"
	"github.com/amanmaurya7/f1-map/internal/projection"
	"github.com/amanmaurya7/f1-map/internal/service"
	"github.com/amanmaurya7/f1-map/internal/tracking"
)

// commandLogger logs to the command's stderr so stdout carries only the
// command's output.
func commandLogger(cmd *cobra.Command, level, format string) *slog.Logger {
	return logging.SetupWriter(cmd.ErrOrStderr(), level, format)
}

type projectOutput struct {
	Track   string          `yaml:"track"`
	Width   float64         `yaml:"width"`
	Height  float64         `yaml:"height"`
	Markers []projectMarker `yaml:"markers"`
}

type projectMarker struct {
	Label string  `yaml:"label"`
	Lat   float64 `yaml:"lat"`
	Lng   float64 `yaml:"lng"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

func runProject(w io.Writer, cfg *config.Config, width, height float64) error {
	track, err := service.NewTrackService(cfg)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = cfg.Track.Canvas.Width
	}
	if height <= 0 {
		height = cfg.Track.Canvas.Height
	}

	out := projectOutput{Track: track.Name(), Width: width, Height: height}
	for _, m := range track.Markers(width, height) {
		out.Markers = append(out.Markers, projectMarker{
			Label: m.Label, Lat: m.Lat, Lng: m.Lng, X: m.Position.X, Y: m.Position.Y,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(out)
}

// replayLine is one line of replay output.
type replayLine struct {
	Timestamp   int64                     `json:"timestamp,omitempty"`
	Lat         float64                   `json:"lat,omitempty"`
	Lng         float64                   `json:"lng,omitempty"`
	Accuracy    float64                   `json:"accuracy,omitempty"`
	Stable      bool                      `json:"stable,omitempty"`
	OutOfBounds bool                      `json:"outOfBounds,omitempty"`
	Position    *projection.PixelPosition `json:"position,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

// replayPrinter writes accepted events and errors as JSON lines.
type replayPrinter struct {
	track    *service.TrackService
	enc      *json.Encoder
	accepted int
	errs     int

	once    sync.Once
	stopped chan struct{}
}

func (p *replayPrinter) HandleLocation(ev tracking.Event) {
	p.accepted++
	pos := p.track.Place(ev.Coordinate)
	p.enc.Encode(replayLine{
		Timestamp:   ev.Timestamp,
		Lat:         ev.Lat,
		Lng:         ev.Lng,
		Accuracy:    ev.Quality.AccuracyMeters,
		Stable:      ev.Quality.IsStable,
		OutOfBounds: ev.OutOfBounds,
		Position:    &pos,
	})
}

func (p *replayPrinter) HandleError(err error) {
	p.errs++
	p.enc.Encode(replayLine{Error: tracking.ErrorCode(err)})
	if errors.Is(err, tracking.ErrPermissionDenied) {
		p.once.Do(func() { close(p.stopped) })
	}
}

func runReplay(ctx context.Context, w io.Writer, r io.Reader, cfg *config.Config, log *slog.Logger) error {
	records, err := tracking.ReadReplay(r)
	if err != nil {
		return err
	}
	track, err := service.NewTrackService(cfg)
	if err != nil {
		return err
	}

	printer := &replayPrinter{track: track, enc: json.NewEncoder(w), stopped: make(chan struct{})}
	provider := tracking.NewReplayProvider(records)
	opts := cfg.TrackerOptions()
	opts.Logger = log
	tracker := tracking.NewTracker(provider, printer, opts)

	if err := tracker.Start(ctx); err != nil {
		return err
	}
	defer tracker.Stop()

	select {
	case <-provider.Done():
	case <-printer.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	tracker.Stop()

	log.Info("replay finished", "records", len(records), "accepted", printer.accepted, "errors", printer.errs)
	if printer.accepted == 0 && len(records) > 0 {
		return fmt.Errorf("no sample in %d records was accepted", len(records))
	}
	return nil
}
