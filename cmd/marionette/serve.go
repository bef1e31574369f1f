package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phanxgames/marionette"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [scene.yaml]",
	Short: "Serve renderer metrics and stored tracks over HTTP",
	Long: `Runs an optional headless scene at the configured tick rate and exposes
Prometheus metrics on /metrics and the track store on /tracks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		port, _ := cmd.Flags().GetString("port")
		appName, _ := cmd.Flags().GetString("store")

		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		store := marionette.NewClassStore(nil)
		if appName != "" {
			if store, err = marionette.OpenClassStore(appName); err != nil {
				return err
			}
		}
		for _, path := range cfg.Tracks {
			c, err := readTrack(path)
			if err != nil {
				return err
			}
			if err := store.SaveTrack(c); err != nil {
				return err
			}
		}

		reg := prometheus.NewRegistry()
		metrics, err := marionette.NewRendererMetrics(cfg.Renderer.MetricsNamespace, reg)
		if err != nil {
			return err
		}

		srv := &server{store: store}
		var scene *marionette.Scene
		if len(args) == 1 {
			sf, err := loadSceneFile(args[0])
			if err != nil {
				return err
			}
			if scene, err = sf.build(cfg); err != nil {
				return err
			}
			scene.SetMetrics(metrics)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if scene != nil {
			go simulateForever(ctx, scene, cfg.Window.TPS)
		}

		httpSrv := &http.Server{
			Addr:    ":" + port,
			Handler: srv.routes(reg),
		}
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", httpSrv.Addr)
			serverErrors <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("serve: shutdown: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("store", "", "gdata application name of the track store (empty: in-memory)")
}

// simulateForever steps s at tps until ctx is done. The scene is only
// touched from this goroutine.
func simulateForever(ctx context.Context, s *marionette.Scene, tps int) {
	if tps <= 0 {
		tps = 60
	}
	dt := 1.0 / float64(tps)
	ticker := time.NewTicker(time.Second / time.Duration(tps))
	defer ticker.Stop()
	var painter marionette.RecordingPainter
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Simulate(1, dt, &painter, nil)
			painter.Reset()
		}
	}
}

// server serves the track store. ClassStore is not safe for concurrent
// use, so handlers hold mu.
type server struct {
	mu    sync.Mutex
	store *marionette.ClassStore
}

func (s *server) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/tracks", s.listTracks)
	r.Get("/tracks/{id}", s.getTrack)
	r.Delete("/tracks/{id}", s.deleteTrack)
	return r
}

func (s *server) listTracks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids, err := s.store.ListTracks()
	s.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ids); err != nil {
		marionette.Logger().Error("encode track list", "err", err)
	}
}

func (s *server) getTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	c, err := s.store.LoadTrack(id)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	data, err := c.ToJSON()
	if err != nil {
		http.Error(w, fmt.Sprintf("Encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *server) deleteTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	err := s.store.DeleteTrack(id)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
