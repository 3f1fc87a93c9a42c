package metricsexporter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/podtrace/alertsub/internal/config"
	"github.com/podtrace/alertsub/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	buildInfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alertsub_build_info",
			Help: "Always 1; labelled with the running version.",
		},
		[]string{"version"},
	)

	sinkConfiguredGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alertsub_sink_configured",
			Help: "1 for each delivery sink enabled at startup.",
		},
		[]string{"sink"},
	)

	scrapeRejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsub_metrics_requests_rejected_total",
			Help: "Metrics endpoint requests rejected before reaching a handler.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(buildInfoGauge)
	prometheus.MustRegister(sinkConfiguredGauge)
	prometheus.MustRegister(scrapeRejectedCounter)
}

func RecordBuildInfo(version string) {
	buildInfoGauge.Reset()
	buildInfoGauge.WithLabelValues(version).Set(1)
}

func RecordSinks(names ...string) {
	sinkConfiguredGauge.Reset()
	for _, name := range names {
		sinkConfiguredGauge.WithLabelValues(name).Set(1)
	}
}

var (
	limiter        = rate.NewLimiter(rate.Every(time.Second/time.Duration(max(config.RateLimitPerSec, 1))), config.RateLimitBurst)
	maxRequestSize = int64(config.MaxRequestSize)
)

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxRequestSize {
			scrapeRejectedCounter.WithLabelValues("too_large").Inc()
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			scrapeRejectedCounter.WithLabelValues("rate_limited").Inc()
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// healthHandler reports 200 until MarkDraining is called, then 503 so
// orchestrators stop routing to a process that is shutting down.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("draining\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

type Server struct {
	server   *http.Server
	addr     string
	draining atomic.Bool
}

func newMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", securityHeadersMiddleware(rateLimitMiddleware(promhttp.Handler())))
	mux.Handle("/healthz", securityHeadersMiddleware(http.HandlerFunc(s.healthHandler)))
	return mux
}

// resolveAddress keeps the listener on loopback unless non-loopback binding
// was explicitly allowed.
func resolveAddress() string {
	addr := config.GetMetricsAddress()
	if host, _, err := net.SplitHostPort(addr); err == nil && !isLoopbackHost(host) {
		if !config.AllowNonLoopbackMetrics() {
			fallback := fmt.Sprintf("%s:%d", config.DefaultMetricsHost, config.DefaultMetricsPort)
			logger.Warn("Rejecting non-loopback metrics address, falling back to default",
				zap.String("requested_addr", addr),
				zap.String("fallback", fallback))
			addr = fallback
		}
	}
	return addr
}

// isLoopbackHost is false for an empty host, which binds every interface.
func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func StartServer() (*Server, error) {
	addr := resolveAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &Server{addr: ln.Addr().String()}
	srv.server = &http.Server{
		Handler:      newMux(srv),
		ReadTimeout:  config.DefaultMetricsReadTimeout,
		WriteTimeout: config.DefaultMetricsWriteTimeout,
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in metrics server", zap.Any("panic", r))
			}
		}()
		if err := srv.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	logger.Info("Metrics server listening", zap.String("addr", srv.addr))
	return srv, nil
}

// Addr is the bound address, with the real port when :0 was requested.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) MarkDraining() {
	s.draining.Store(true)
}

func (s *Server) Shutdown() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.DefaultMetricsShutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}
