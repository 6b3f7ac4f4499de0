package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/aggregate"
)

// HistoryReader is the read-only view the API exposes over the in-memory
// rolling history.
type HistoryReader interface {
	Latest() (aggregate.Snapshot, bool)
	Window(d time.Duration) []aggregate.Snapshot
	MovingAverage(now time.Time, d time.Duration) decimal.NullDecimal
	Volatility(now time.Time, d time.Duration) decimal.NullDecimal
	Momentum(now time.Time, d time.Duration) decimal.NullDecimal
}

// Server serves the read-only monitoring API and the dashboard page.
type Server struct {
	reader HistoryReader
	logger zerolog.Logger
	http   *http.Server
}

// New builds the server around a history reader.
func New(addr string, reader HistoryReader, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		reader: reader,
		logger: logger.With().Str("component", "web").Logger(),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleDashboard)
	api := router.Group("/api/v1")
	{
		api.GET("/latest", s.handleLatest)
		api.GET("/history", s.handleHistory)
		api.GET("/stats", s.handleStats)
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("web server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	return ctx.Err()
}

func (s *Server) handleLatest(c *gin.Context) {
	snap, ok := s.reader.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHistory(c *gin.Context) {
	window := time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid window %q", raw)})
			return
		}
		window = parsed
	}

	snapshots := s.reader.Window(window)
	c.JSON(http.StatusOK, gin.H{
		"window":    window.String(),
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	window := time.Hour
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid window %q", raw)})
			return
		}
		window = parsed
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"window":         window.String(),
		"moving_average": s.reader.MovingAverage(now, window),
		"volatility":     s.reader.Volatility(now, window),
		"momentum":       s.reader.Momentum(now, window),
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>coinwatch</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: sans-serif; margin: 2rem; background: #101418; color: #e0e6ed; }
h1 { font-size: 1.2rem; }
#meta { color: #8b97a5; margin-bottom: 1rem; }
canvas { max-height: 420px; }
</style>
</head>
<body>
<h1>coinwatch</h1>
<div id="meta">loading…</div>
<canvas id="chart"></canvas>
<script>
let chart;
async function refresh() {
  const res = await fetch('/api/v1/history?window=1h');
  const body = await res.json();
  const labels = body.snapshots.map(s => s.timestamp.slice(11, 19));
  const data = body.snapshots.map(s => s.average ? parseFloat(s.average) : null);
  const latest = body.snapshots[body.snapshots.length - 1];
  if (latest) {
    document.getElementById('meta').textContent =
      latest.symbol.toUpperCase() + '/' + latest.quote_currency.toUpperCase() +
      ' — ' + body.count + ' samples, last avg ' + (latest.average || 'n/a');
  }
  if (!chart) {
    chart = new Chart(document.getElementById('chart'), {
      type: 'line',
      data: { labels, datasets: [{ label: 'average', data, borderColor: '#4db8ff', tension: 0.2 }] },
      options: { animation: false, scales: { y: { beginAtZero: false } } }
    });
  } else {
    chart.data.labels = labels;
    chart.data.datasets[0].data = data;
    chart.update();
  }
}
refresh();
setInterval(refresh, 15000);
</script>
</body>
</html>`
