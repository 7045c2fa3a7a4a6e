package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"go.uber.org/zap"
)

type stubNotificationService struct {
	deleted atomic.Int64
}

func (s *stubNotificationService) NotifyTransition(ctx context.Context, req *entity.Request, actor *entity.User, action workflow.Trigger, vehicle *entity.Vehicle) []string {
	return nil
}
func (s *stubNotificationService) NotifyNewRequest(ctx context.Context, req *entity.Request, requester *entity.User) []string {
	return nil
}
func (s *stubNotificationService) NotifyVehicleAssigned(ctx context.Context, req *entity.Request, driverID int64, vehicle *entity.Vehicle) []string {
	return nil
}
func (s *stubNotificationService) NotifyServiceDue(ctx context.Context, vehicle *entity.Vehicle) []string {
	return nil
}
func (s *stubNotificationService) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	return nil, nil
}
func (s *stubNotificationService) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	return 0, nil
}
func (s *stubNotificationService) MarkRead(ctx context.Context, id, recipientID int64) error {
	return nil
}
func (s *stubNotificationService) MarkAllRead(ctx context.Context, recipientID int64) error {
	return nil
}
func (s *stubNotificationService) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	s.deleted.Add(1)
	return 3, nil
}

func TestCleanupWorkerSweepsOnStart(t *testing.T) {
	svc := &stubNotificationService{}
	w := NewCleanupWorker(CleanupWorkerConfig{Interval: time.Hour, Retention: time.Hour}, svc, zap.NewNop())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	deadline := time.After(time.Second)
	for svc.deleted.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected a startup sweep")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCleanupWorkerDoubleStart(t *testing.T) {
	w := NewCleanupWorker(DefaultCleanupWorkerConfig(), &stubNotificationService{}, zap.NewNop())

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("expected second start to fail")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(zap.NewNop())
	w := NewCleanupWorker(DefaultCleanupWorkerConfig(), &stubNotificationService{}, zap.NewNop())
	m.Register(w)

	if err := m.StartAll(context.Background()); err != nil {
		t.Fatalf("start all failed: %v", err)
	}
	if !m.IsRunning() {
		t.Error("expected manager running")
	}

	if err := m.StopAll(); err != nil {
		t.Fatalf("stop all failed: %v", err)
	}
	if m.IsRunning() {
		t.Error("expected manager stopped")
	}
}
