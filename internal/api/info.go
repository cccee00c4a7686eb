package api

import "context"

type InfoBody struct {
	Name        string   `json:"name" doc:"Service name"`
	Version     string   `json:"version" doc:"Service version"`
	Track       string   `json:"track" doc:"Name of the served track"`
	Points      int      `json:"points" doc:"Number of points of interest"`
	Subscribers int      `json:"subscribers" doc:"Live location stream subscribers"`
	Features    []string `json:"features" doc:"Available features"`
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:        "racemap",
		Version:     h.version,
		Track:       h.svc.Track.Name(),
		Points:      len(h.svc.Track.Info().Points),
		Subscribers: h.svc.Location.Bus().Subscribers(),
		Features:    []string{"projection", "geojson", "location-filter", "datastar-sse", "websocket-ingest"},
	}}, nil
}
