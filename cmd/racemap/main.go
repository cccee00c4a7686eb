package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amanmaurya7/f1-map/internal/config"
	"github.com/amanmaurya7/f1-map/internal/logging"
	"github.com/amanmaurya7/f1-map/internal/server"
)

// Options defines all CLI flags and env vars for the racemap server.
// Flags: --host, --port, --config, --fragments-dir, --log-level, --log-format
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_FRAGMENTS_DIR, ...
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config       string `doc:"Track configuration file merged over the built-in track" short:"c"`
	FragmentsDir string `doc:"Directory of HTML fragments overriding the embedded ones"`
	LogLevel     string `doc:"Log level: debug, info, warn or error" default:"info"`
	LogFormat    string `doc:"Log format: json or text" default:"text"`
}

func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newServer(opts *Options, log *slog.Logger) (*server.Server, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:         opts.Host,
		Port:         fmt.Sprintf("%d", opts.Port),
		Track:        cfg,
		FragmentsDir: opts.FragmentsDir,
		Logger:       log,
	})
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			log := logging.Setup(opts.LogLevel, opts.LogFormat)

			var err error
			srv, err = newServer(opts, log)
			if err != nil {
				fatal("Startup error: %v", err)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info("racemap API server starting",
				"addr", baseURL,
				"track", srv.Services().Track.Name(),
				"docs", baseURL+"/docs",
				"openapi", baseURL+"/openapi.json",
				"metrics", baseURL+"/metrics",
			)

			httpServer = &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fatal("Server error: %v", err)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
			srv.Close()
		})
	})

	cli.Root().Use = "racemap"
	cli.Root().Short = "Racetrack map with live location tracking"
	cli.Root().Version = server.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			log := commandLogger(cmd, "error", opts.LogFormat)
			srv, err := newServer(opts, log)
			if err != nil {
				fatal("Error: %v", err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal("Error marshaling spec: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Print the canvas position of every point of interest as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal("Error: %v", err)
			}
			width, _ := cmd.Flags().GetFloat64("width")
			height, _ := cmd.Flags().GetFloat64("height")
			if err := runProject(cmd.OutOrStdout(), cfg, width, height); err != nil {
				fatal("Error: %v", err)
			}
		}),
	}
	projectCmd.Flags().Float64("width", 0, "Canvas width (defaults to the track canvas)")
	projectCmd.Flags().Float64("height", 0, "Canvas height (defaults to the track canvas)")
	cli.Root().AddCommand(projectCmd)

	replayCmd := &cobra.Command{
		Use:   "replay <samples.jsonl>",
		Short: "Run the location filter over a recorded sample file and print accepted events",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			log := commandLogger(cmd, opts.LogLevel, opts.LogFormat)
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal("Error: %v", err)
			}
			f, err := os.Open(args[0])
			if err != nil {
				fatal("Error: %v", err)
			}
			defer f.Close()
			if err := runReplay(cmd.Context(), cmd.OutOrStdout(), f, cfg, log); err != nil {
				fatal("Error: %v", err)
			}
		}),
	}
	cli.Root().AddCommand(replayCmd)

	cli.Run()
}
