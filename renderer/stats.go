package renderer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Stats tracks frame timing and draw counts. Each Stats owns its registry so
// several engines (or tests) do not collide on metric names.
type Stats struct {
	Registry *prometheus.Registry

	fps        prometheus.Gauge
	frameTime  prometheus.Histogram
	drawCalls  prometheus.Counter
	particles  prometheus.Counter
	passErrors *prometheus.CounterVec

	frames      int
	windowStart time.Time
	lastFPS     float64
}

func NewStats() *Stats {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Stats{
		Registry: reg,
		fps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "galaxy_fps",
			Help: "Frames per second averaged over the last second",
		}),
		frameTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "galaxy_frame_seconds",
			Help:    "Wall time spent per frame",
			Buckets: []float64{0.002, 0.004, 0.008, 0.0167, 0.033, 0.066, 0.1, 0.25},
		}),
		drawCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "galaxy_draw_calls_total",
			Help: "Instanced draw calls issued",
		}),
		particles: factory.NewCounter(prometheus.CounterOpts{
			Name: "galaxy_particles_drawn_total",
			Help: "Particle instances submitted to the GPU",
		}),
		passErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "galaxy_pass_errors_total",
			Help: "Render passes that failed, by pass name",
		}, []string{"pass"}),
	}
}

// ObserveFrame records one finished frame. It returns true when the FPS
// estimate was refreshed, which happens at most once per second.
func (s *Stats) ObserveFrame(now time.Time, frameTime time.Duration, drawCalls, particles int) bool {
	s.frameTime.Observe(frameTime.Seconds())
	s.drawCalls.Add(float64(drawCalls))
	s.particles.Add(float64(particles))

	if s.windowStart.IsZero() {
		s.windowStart = now
	}
	s.frames++
	elapsed := now.Sub(s.windowStart)
	if elapsed < time.Second {
		return false
	}
	s.lastFPS = float64(s.frames) / elapsed.Seconds()
	s.fps.Set(s.lastFPS)
	s.frames = 0
	s.windowStart = now
	return true
}

// PassFailed counts a failed pass.
func (s *Stats) PassFailed(pass string) {
	s.passErrors.WithLabelValues(pass).Inc()
}

// FPS returns the latest estimate.
func (s *Stats) FPS() float64 { return s.lastFPS }

// Serve exposes /metrics on addr until ctx is done. An empty addr disables
// the listener.
func (s *Stats) Serve(ctx context.Context, log *zap.Logger, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		log.Info("Metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics listener failed", zap.Error(err))
		}
	}()
}
