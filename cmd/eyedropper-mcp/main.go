package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/eyedropper-mcp/internal/capture"
	"github.com/ironsheep/eyedropper-mcp/internal/config"
	"github.com/ironsheep/eyedropper-mcp/internal/eyedropper"
	"github.com/ironsheep/eyedropper-mcp/internal/host"
	"github.com/ironsheep/eyedropper-mcp/internal/imaging"
	"github.com/ironsheep/eyedropper-mcp/internal/logging"
	"github.com/ironsheep/eyedropper-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile     string
	metricsAddr string

	pickImage string
	pickX     float64
	pickY     float64
	pickDPR   float64
)

var rootCmd = &cobra.Command{
	Use:   "eyedropper-mcp",
	Short: "EyeDropper color picker",
	Long:  `eyedropper-mcp - pick colors from a captured surface over MCP or from the command line`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick the color at a point of an image file",
	Run: func(cmd *cobra.Command, args []string) {
		runPick()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eyedropper-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/eyedropper/eyedropper.yaml)")

	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	pickCmd.Flags().StringVar(&pickImage, "image", "", "image file to pick from")
	pickCmd.Flags().Float64Var(&pickX, "x", 0, "client X coordinate")
	pickCmd.Flags().Float64Var(&pickY, "y", 0, "client Y coordinate")
	pickCmd.Flags().Float64Var(&pickDPR, "dpr", 1, "device pixel ratio")
	_ = pickCmd.MarkFlagRequired("image")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout is for the MCP protocol
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	return cfg
}

func runServer() {
	var current atomic.Pointer[server.Server]
	cfg, err := config.Watch(cfgFile, func(next *config.Config) {
		if srv := current.Load(); srv != nil {
			srv.Reconfigure(next)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout is for the MCP protocol
	logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	log := logging.L("main")
	log.Info("starting eyedropper-mcp", "version", Version, "commit", GitCommit, "source", cfg.Capture.Source)

	server.Version = Version
	srv, err := server.New(cfg)
	if err != nil {
		log.Error("server setup failed", logging.KeyError, err)
		os.Exit(1)
	}
	current.Store(srv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		hs := &http.Server{Addr: metricsAddr, Handler: srv.Metrics().Router(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("serving metrics", "addr", metricsAddr)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}

	// The stdio loop cannot be interrupted, so it runs outside the group and
	// ends the process when stdin closes.
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	select {
	case err = <-done:
		stop()
	case <-ctx.Done():
		log.Info("shutting down")
	}

	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	if cerr := srv.Close(); cerr != nil {
		log.Warn("close failed", logging.KeyError, cerr)
	}
	if err != nil {
		log.Error("server error", logging.KeyError, err)
		os.Exit(1)
	}
}

func runPick() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hex, err := pick(ctx, cfg, pickImage, pickX, pickY, pickDPR)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hex)
}

// pick runs one full session against a virtual host showing the image.
func pick(ctx context.Context, cfg *config.Config, path string, x, y, dpr float64) (string, error) {
	cache := imaging.NewImageCache()
	dims, err := imaging.GetDimensions(cache, path)
	if err != nil {
		return "", err
	}
	if dpr <= 0 {
		dpr = 1
	}

	h := host.NewVirtual(eyedropper.Viewport{
		Width:            int(float64(dims.Width) / dpr),
		Height:           int(float64(dims.Height) / dpr),
		DevicePixelRatio: dpr,
	})
	opts := []eyedropper.Option{eyedropper.WithLogger(logging.L("eyedropper"))}
	if cfg.Magnifier.Enabled {
		opts = append(opts, eyedropper.WithMagnifier(cfg.Magnifier.Options))
	} else {
		opts = append(opts, eyedropper.WithoutMagnifier())
	}
	ctrl := eyedropper.New(h, h, &capture.File{Path: path, Cache: cache}, opts...)

	req, err := ctrl.Open(ctx)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for ctrl.Status() != eyedropper.Armed {
		select {
		case <-req.Done():
			_, err := req.Wait(ctx)
			return "", err
		case <-ctx.Done():
			_, err := req.Wait(context.Background())
			return "", err
		case <-ticker.C:
		}
	}

	if err := h.Move(x, y); err != nil {
		return "", err
	}
	// The settled request carries the authoritative error.
	_ = h.Confirm(x, y)

	res, err := req.Wait(ctx)
	if err != nil {
		return "", err
	}
	return res.SRGBHex, nil
}
