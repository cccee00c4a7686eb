package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/track>; rel="track"`,
		`</api/v1/location>; rel="location"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/track>; rel="track"`,
	},
	"/api/v1/track": {
		`</api/v1/track/geojson>; rel="alternate"; type="application/geo+json"`,
		`</api/v1/markers>; rel="markers"`,
		`</api/v1/project>; rel="project"`,
	},
	"/api/v1/viewport/zoom": {
		`</api/v1/viewport/zoom/step>; rel="step"`,
	},
	"/api/v1/track/geojson": {
		`</api/v1/track>; rel="up"`,
	},
	"/api/v1/markers": {
		`</api/v1/track>; rel="track"`,
		`</api/v1/viewport/zoom>; rel="zoom"`,
	},
	"/api/v1/location": {
		`</api/v1/location/samples>; rel="samples"`,
		`</api/v1/location/stream>; rel="stream"`,
		`</api/v1/location/network>; rel="network"`,
	},
	"/api/v1/location/samples": {
		`</api/v1/location>; rel="up"`,
	},
	"/api/v1/location/session/{action}": {
		`</api/v1/location>; rel="up"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Parameterised endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		return v, nil
	}
}
