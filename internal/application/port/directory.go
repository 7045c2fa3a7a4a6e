package port

import (
	"context"

	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
)

// ActorDirectory resolves organizational actors. The dispatcher uses it to
// find notification recipients; the state machine uses it to scope
// department checks.
type ActorDirectory interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ActiveWithRole(ctx context.Context, role workflow.Role) ([]*entity.User, error)
}
