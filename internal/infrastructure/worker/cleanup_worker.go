package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fleetops/tms/internal/application/service"
	"go.uber.org/zap"
)

// CleanupWorkerConfig holds configuration for the notification cleanup worker
type CleanupWorkerConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultCleanupWorkerConfig returns default configuration
func DefaultCleanupWorkerConfig() CleanupWorkerConfig {
	return CleanupWorkerConfig{
		Interval:  24 * time.Hour,
		Retention: 90 * 24 * time.Hour,
	}
}

// CleanupWorker periodically removes read notifications older than the
// retention window.
type CleanupWorker struct {
	config        CleanupWorkerConfig
	notifications service.NotificationService
	logger        *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(config CleanupWorkerConfig, notifications service.NotificationService, logger *zap.Logger) *CleanupWorker {
	return &CleanupWorker{
		config:        config,
		notifications: notifications,
		logger:        logger,
	}
}

// Name returns the worker name
func (w *CleanupWorker) Name() string {
	return "notification-cleanup"
}

// Start begins the cleanup loop
func (w *CleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("cleanup worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	go w.run(runCtx)
	return nil
}

// Stop signals the loop and waits for it to exit
func (w *CleanupWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (w *CleanupWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// one pass at startup, then on the ticker
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	deleted, err := w.notifications.DeleteOlderThan(ctx, w.config.Retention)
	if err != nil {
		w.logger.Error("Notification cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		w.logger.Info("Notification cleanup pass finished", zap.Int64("deleted", deleted))
	}
}
