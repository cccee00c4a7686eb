// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/amanmaurya7/f1-map/internal/service"
	"github.com/amanmaurya7/f1-map/internal/tracking"
	"github.com/amanmaurya7/f1-map/internal/viewport"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Track    *service.TrackService
	Location *service.LocationService
}

// Types

type CanvasInput struct {
	Width  float64 `query:"width" exclusiveMinimum:"0" doc:"Canvas width; defaults to the track canvas" example:"1000"`
	Height float64 `query:"height" exclusiveMinimum:"0" doc:"Canvas height; defaults to the track canvas" example:"800"`
}

type MarkersBody struct {
	Width   float64          `json:"width" doc:"Canvas width used"`
	Height  float64          `json:"height" doc:"Canvas height used"`
	Markers []service.Marker `json:"markers" doc:"Projected points of interest"`
}

type ZoomInput struct {
	ViewportWidth  float64 `query:"viewportWidth" required:"true" exclusiveMinimum:"0" doc:"Browser viewport width in pixels" example:"390"`
	ViewportHeight float64 `query:"viewportHeight" required:"true" exclusiveMinimum:"0" doc:"Browser viewport height in pixels" example:"844"`
}

type ZoomBody struct {
	Zoom    float64 `json:"zoom" doc:"Initial zoom that fits the map in the viewport"`
	MinZoom float64 `json:"minZoom"`
	MaxZoom float64 `json:"maxZoom"`
	Step    float64 `json:"step" doc:"Multiplier applied by the zoom buttons"`
}

type ZoomStepInput struct {
	Zoom         float64 `query:"zoom" required:"true" exclusiveMinimum:"0" doc:"Current zoom" example:"1"`
	Action       string  `query:"action" required:"true" enum:"in,out,wheel,pinch" doc:"Zoom gesture"`
	DeltaY       float64 `query:"deltaY" doc:"Wheel delta; negative zooms in" example:"-100"`
	PrevDistance float64 `query:"prevDistance" minimum:"0" doc:"Previous distance between touch points"`
	Distance     float64 `query:"distance" minimum:"0" doc:"Current distance between touch points"`
	FrameMillis  int     `query:"frame" minimum:"1" maximum:"1000" default:"16" doc:"Animation frame interval in milliseconds"`
}

type ZoomStepBody struct {
	Zoom   float64   `json:"zoom" doc:"Zoom after the gesture, clamped to the allowed range"`
	Frames []float64 `json:"frames" doc:"Eased zoom values to render, ending on zoom"`
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type LocationBody struct {
	tracking.Snapshot
	Current *service.LocationUpdate `json:"current,omitempty" doc:"Last accepted location placed on the canvas"`
}

type ErrorInput struct {
	Body struct {
		Code    string `json:"code" enum:"permission_denied,position_unavailable,timeout" doc:"Device error code"`
		Message string `json:"message,omitempty" doc:"Device error message"`
	}
}

type SessionInput struct {
	Action string `path:"action" enum:"start,stop,suspend,resume" doc:"Session lifecycle action"`
}

type NetworkBody struct {
	Network tracking.NetworkStatus `json:"network"`
	Watch   tracking.WatchOptions  `json:"watch" doc:"Watch options the next subscription will use"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc     *Services
	version string
}

func NewAPIHandler(svc *Services, version string) *APIHandler {
	return &APIHandler{svc: svc, version: version}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterTrack registers the map and projection routes.
func (h *APIHandler) RegisterTrack(api huma.API) {
	huma.Get(api, "/api/v1/track", h.GetTrack, huma.OperationTags("track"))
	huma.Get(api, "/api/v1/track/geojson", h.GetTrackGeoJSON, huma.OperationTags("track"))
	huma.Get(api, "/api/v1/markers", h.GetMarkers, huma.OperationTags("track"))
	huma.Post(api, "/api/v1/project", h.Project, huma.OperationTags("track"))
	huma.Get(api, "/api/v1/viewport/zoom", h.GetZoom, huma.OperationTags("track"))
	huma.Get(api, "/api/v1/viewport/zoom/step", h.ZoomStep, huma.OperationTags("track"))
}

// RegisterLocation registers the live-location routes.
func (h *APIHandler) RegisterLocation(api huma.API) {
	huma.Get(api, "/api/v1/location", h.GetLocation, huma.OperationTags("location"))
	huma.Post(api, "/api/v1/location/samples", h.PushSample, huma.OperationTags("location"))
	huma.Post(api, "/api/v1/location/errors", h.PushError, huma.OperationTags("location"))
	huma.Post(api, "/api/v1/location/session/{action}", h.Session, huma.OperationTags("location"))
	huma.Put(api, "/api/v1/location/network", h.PutNetwork, huma.OperationTags("location"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: h.version}}, nil
}

func (h *APIHandler) GetTrack(ctx context.Context, input *struct{}) (*struct{ Body service.TrackInfo }, error) {
	return &struct{ Body service.TrackInfo }{Body: h.svc.Track.Info()}, nil
}

func (h *APIHandler) GetTrackGeoJSON(ctx context.Context, input *struct{}) (*GeoJSONOutput, error) {
	data, err := json.Marshal(h.svc.Track.GeoJSON())
	if err != nil {
		return nil, huma.Error500InternalServerError("encoding track", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetMarkers(ctx context.Context, input *CanvasInput) (*struct{ Body MarkersBody }, error) {
	w, hgt := input.Width, input.Height
	canvas := h.svc.Track.Canvas()
	if w == 0 {
		w = canvas.Width
	}
	if hgt == 0 {
		hgt = canvas.Height
	}
	return &struct{ Body MarkersBody }{Body: MarkersBody{
		Width: w, Height: hgt, Markers: h.svc.Track.Markers(w, hgt),
	}}, nil
}

func (h *APIHandler) Project(ctx context.Context, input *struct{ Body service.ProjectRequest }) (*struct{ Body service.ProjectResult }, error) {
	return &struct{ Body service.ProjectResult }{Body: h.svc.Track.Project(input.Body)}, nil
}

func (h *APIHandler) GetZoom(ctx context.Context, input *ZoomInput) (*struct{ Body ZoomBody }, error) {
	canvas := h.svc.Track.Canvas()
	return &struct{ Body ZoomBody }{Body: ZoomBody{
		Zoom:    viewport.InitialZoom(input.ViewportWidth, input.ViewportHeight, canvas.Width, canvas.Height),
		MinZoom: viewport.MinZoom,
		MaxZoom: viewport.MaxZoom,
		Step:    viewport.ZoomStep,
	}}, nil
}

// ZoomStep applies a zoom gesture. Button steps animate over the default
// duration; wheel and pinch input tracks the gesture directly.
func (h *APIHandler) ZoomStep(ctx context.Context, input *ZoomStepInput) (*struct{ Body ZoomStepBody }, error) {
	from := viewport.Clamp(input.Zoom)
	var to float64
	switch input.Action {
	case "in":
		to = viewport.ZoomIn(from)
	case "out":
		to = viewport.ZoomOut(from)
	case "wheel":
		to = viewport.Wheel(from, input.DeltaY)
	case "pinch":
		to = viewport.Pinch(from, input.PrevDistance, input.Distance)
	default:
		return nil, huma.Error400BadRequest("unknown zoom action")
	}

	frames := []float64{to}
	if input.Action == "in" || input.Action == "out" {
		frames = viewport.Frames(from, to, viewport.DefaultAnimation, time.Duration(input.FrameMillis)*time.Millisecond)
	}
	return &struct{ Body ZoomStepBody }{Body: ZoomStepBody{Zoom: to, Frames: frames}}, nil
}

func (h *APIHandler) GetLocation(ctx context.Context, input *struct{}) (*struct{ Body LocationBody }, error) {
	return &struct{ Body LocationBody }{Body: h.location()}, nil
}

func (h *APIHandler) PushSample(ctx context.Context, input *struct{ Body service.SampleInput }) (*struct{ Body LocationBody }, error) {
	if err := h.svc.Location.Push(input.Body); err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body LocationBody }{Body: h.location()}, nil
}

func (h *APIHandler) PushError(ctx context.Context, input *ErrorInput) (*struct{ Body LocationBody }, error) {
	if err := h.svc.Location.Fail(input.Body.Code); err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body LocationBody }{Body: h.location()}, nil
}

func (h *APIHandler) Session(ctx context.Context, input *SessionInput) (*struct{ Body LocationBody }, error) {
	if _, err := h.svc.Location.Session(ctx, input.Action); err != nil {
		return nil, sessionError(err)
	}
	return &struct{ Body LocationBody }{Body: h.location()}, nil
}

func (h *APIHandler) PutNetwork(ctx context.Context, input *struct{ Body tracking.NetworkStatus }) (*struct{ Body NetworkBody }, error) {
	watch := h.svc.Location.SetNetwork(input.Body)
	return &struct{ Body NetworkBody }{Body: NetworkBody{Network: input.Body, Watch: watch}}, nil
}

func (h *APIHandler) location() LocationBody {
	body := LocationBody{Snapshot: h.svc.Location.Snapshot()}
	if cur, ok := h.svc.Location.Current(); ok {
		body.Current = &cur
	}
	return body
}

// sessionError maps location session failures onto HTTP errors.
func sessionError(err error) error {
	switch {
	case errors.Is(err, tracking.ErrNoWatcher):
		return huma.Error409Conflict("no tracking session is running; start one first")
	case errors.Is(err, service.ErrUnknownAction):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, service.ErrInvalidSample):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, tracking.ErrUnsupportedEnvironment):
		return huma.Error501NotImplemented(err.Error())
	default:
		return huma.Error500InternalServerError("location session", err)
	}
}
