package api

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/amanmaurya7/f1-map/internal/humastar"
	"github.com/amanmaurya7/f1-map/internal/service"
	"github.com/amanmaurya7/f1-map/internal/templates"
)

// StreamHandler serves the Datastar SSE endpoints of the map page.
type StreamHandler struct {
	humastar.Handler
	track    *service.TrackService
	location *service.LocationService
	log      *slog.Logger
}

// NewStreamHandler creates the SSE handler.
func NewStreamHandler(svc *Services, renderer *templates.Renderer, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		track:    svc.Track,
		location: svc.Location,
		log:      log.With("component", "stream"),
	}
}

func (h *StreamHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/location/stream", h.Location,
		huma.OperationTags("stream"),
	)
	huma.Get(api, "/api/v1/markers/stream", h.Markers,
		huma.OperationTags("stream"),
	)
	huma.Post(api, "/api/v1/location/signals", h.Signals,
		huma.OperationTags("stream"),
	)
}

// markerView is the template data for a placed marker.
type markerView struct {
	service.Marker
	CanvasWidth  float64
	CanvasHeight float64
}

// locationView is the template data for the user marker.
type locationView struct {
	service.LocationUpdate
	CanvasWidth  float64
	CanvasHeight float64
}

// Markers patches the points of interest into #markers.
func (h *StreamHandler) Markers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := sse.Patch(h.renderMarkers(), "#markers"); err != nil {
			h.log.Debug("markers patch failed", "error", err)
		}
	}), nil
}

func (h *StreamHandler) renderMarkers() string {
	canvas := h.track.Canvas()
	markers := h.track.Markers(canvas.Width, canvas.Height)
	items := make([]any, 0, len(markers))
	for _, m := range markers {
		items = append(items, markerView{Marker: m, CanvasWidth: canvas.Width, CanvasHeight: canvas.Height})
	}
	return h.RenderList("marker", items, "No points of interest", "The track has no configured markers")
}

// Location streams the user marker. The live position is sent first, or a
// hidden marker when no session is tracking, then every change published by
// the location service until the client disconnects.
func (h *StreamHandler) Location(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ch := h.location.Bus().Subscribe()
		defer h.location.Bus().Unsubscribe(ch)

		if err := h.sendInitial(sse); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := h.send(sse, ev); err != nil {
					h.log.Debug("location stream closed", "error", err)
					return
				}
			}
		}
	}), nil
}

func (h *StreamHandler) sendInitial(sse humastar.SSE) error {
	if cur, ok := h.location.Live(); ok {
		return h.send(sse, service.Event{Kind: service.KindLocation, Location: &cur, Hide: !cur.Visible})
	}
	state := service.Event{Kind: service.KindState, State: h.location.Snapshot().State, Hide: true}
	if err := h.send(sse, state); err != nil {
		return err
	}
	if code := h.location.Failure(); code != "" {
		return sse.Signals(map[string]any{"locationError": code})
	}
	return nil
}

func (h *StreamHandler) send(sse humastar.SSE, ev service.Event) error {
	switch ev.Kind {
	case service.KindLocation:
		u := ev.Location
		canvas := h.track.Canvas()
		html, err := h.Renderer.Render("user-location", locationView{LocationUpdate: *u, CanvasWidth: canvas.Width, CanvasHeight: canvas.Height})
		if err != nil {
			return err
		}
		if err := sse.Replace(html, "#user-location"); err != nil {
			return err
		}
		return sse.Signals(map[string]any{
			"lat":           u.Lat,
			"lng":           u.Lng,
			"accuracy":      u.Quality.AccuracyMeters,
			"stable":        u.Quality.IsStable,
			"indoor":        u.Quality.Indoor,
			"outOfBounds":   u.OutOfBounds,
			"locationError": "",
		})
	case service.KindError:
		if ev.Hide {
			if err := h.hide(sse); err != nil {
				return err
			}
		}
		if err := sse.Error(ev.Message); err != nil {
			return err
		}
		return sse.Signals(map[string]any{"locationError": ev.Code})
	default:
		if ev.Hide {
			if err := h.hide(sse); err != nil {
				return err
			}
		}
		return sse.Signals(map[string]any{"trackingState": string(ev.State)})
	}
}

func (h *StreamHandler) hide(sse humastar.SSE) error {
	html, err := h.Renderer.Render("user-location-hidden", nil)
	if err != nil {
		return err
	}
	return sse.Replace(html, "#user-location")
}

// Signals ingests a sample posted by the page with Datastar signals. lat,
// lng and accuracy are required and range-checked like the REST input;
// timestamp is optional. It answers with the resulting tracking state.
func (h *StreamHandler) Signals(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"lat", "lng", "accuracy"} {
		if _, ok := signals.Number(key); !ok {
			return nil, huma.Error400BadRequest(key + " signal is required")
		}
	}
	sample := service.SampleInput{
		Lat:       signals.Float("lat"),
		Lng:       signals.Float("lng"),
		Accuracy:  signals.Float("accuracy"),
		Timestamp: signals.Int64("timestamp"),
	}
	if err := sample.Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	pushErr := h.location.Push(sample)

	return h.Stream(func(sse humastar.SSE) {
		if pushErr != nil {
			sse.Error(pushErr.Error())
			return
		}
		sse.Signals(map[string]any{"trackingState": string(h.location.Snapshot().State), "error": ""})
	}), nil
}
