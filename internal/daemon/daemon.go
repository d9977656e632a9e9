package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/username/leave-planner/internal/planner"
	"go.uber.org/zap"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests
const shutdownTimeout = 10 * time.Second

// Daemon serves the HTTP API and keeps the holiday sources warm
type Daemon struct {
	server          *http.Server
	service         *planner.Service
	refreshInterval time.Duration
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc

	mu              sync.Mutex // Protects the refresh state below
	refreshRunning  bool
	refreshCount    int
	lastRefreshTime time.Time
	lastRefreshErr  error
}

// NewDaemon creates a new daemon instance. A non-positive refresh interval
// disables periodic holiday refreshes.
func NewDaemon(addr string, handler http.Handler, service *planner.Service, refreshInterval time.Duration, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		service:         service,
		refreshInterval: refreshInterval,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start serves until SIGINT/SIGTERM or Stop, then shuts down gracefully
func (d *Daemon) Start() error {
	d.logger.Info("Daemon started",
		zap.String("addr", d.server.Addr),
		zap.Duration("refresh_interval", d.refreshInterval))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return d.run(d.ctx, sigChan)
}

// RunWithTimeout runs the daemon with a timeout (for testing)
func (d *Daemon) RunWithTimeout(timeout time.Duration) error {
	d.logger.Info("Daemon started with timeout",
		zap.Duration("timeout", timeout),
		zap.Duration("refresh_interval", d.refreshInterval))

	timeoutCtx, timeoutCancel := context.WithTimeout(d.ctx, timeout)
	defer timeoutCancel()

	return d.run(timeoutCtx, nil)
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) run(ctx context.Context, sigChan <-chan os.Signal) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Run initial refresh immediately
	go d.refreshHolidays()

	var tick <-chan time.Time
	if d.refreshInterval > 0 {
		ticker := time.NewTicker(d.refreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopped")
			return d.shutdown()

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			return d.shutdown()

		case err := <-serveErr:
			d.cancel()
			return fmt.Errorf("http server failed: %w", err)

		case <-tick:
			go d.refreshHolidays()
		}
	}
}

func (d *Daemon) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := d.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// refreshHolidays loads this year's and next year's holidays so remote
// sources refill their caches outside of request handling
func (d *Daemon) refreshHolidays() {
	d.mu.Lock()
	if d.refreshRunning {
		d.mu.Unlock()
		d.logger.Debug("Holiday refresh already running, skipping")
		return
	}
	d.refreshRunning = true
	d.mu.Unlock()

	year := d.service.Now().Year()
	var err error
	total := 0
	for _, y := range []int{year, year + 1} {
		holidays, herr := d.service.Holidays(d.ctx, y, true)
		if herr != nil {
			err = herr
			break
		}
		total += len(holidays)
	}

	d.mu.Lock()
	d.refreshRunning = false
	d.refreshCount++
	d.lastRefreshTime = d.service.Now()
	d.lastRefreshErr = err
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("Failed to refresh holidays",
			zap.Int("year", year),
			zap.Error(err))
		return
	}

	d.logger.Info("Holidays refreshed",
		zap.Int("year", year),
		zap.Int("holidays", total))
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"addr":             d.server.Addr,
		"refresh_interval": d.refreshInterval.String(),
		"refresh_count":    d.refreshCount,
	}
	if !d.lastRefreshTime.IsZero() {
		status["last_refresh"] = d.lastRefreshTime.Format(time.RFC3339)
	}
	if d.lastRefreshErr != nil {
		status["last_refresh_error"] = d.lastRefreshErr.Error()
	}
	return status
}
