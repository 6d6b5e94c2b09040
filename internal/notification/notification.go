// Package notification fans closing events out to interested parties.
// The default dispatcher writes structured log lines; deployments hang
// real channels (email, webhooks) off the same interface.
package notification

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Event is one closing milestone worth telling someone about.
type Event struct {
	Kind   Kind
	UnitID snowflake.ID
	// Actor is empty for system-triggered events.
	ActorID   string
	ActorRole string
	Detail    map[string]string
}

type Kind string

const (
	KindStatementRecalculated Kind = "statement.recalculated"
	KindStatementLocked       Kind = "statement.locked"
	KindStatementUnlocked     Kind = "statement.unlocked"
	KindStatementUploaded     Kind = "statement.uploaded"
	KindUnitAtRisk            Kind = "unit.at_risk"
)

// Dispatcher delivers events. Implementations must tolerate being called
// inside request handling; delivery failures are logged, never surfaced
// to the caller's transaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

type logDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) Dispatcher {
	return &logDispatcher{log: log.Named("notification")}
}

func (d *logDispatcher) Dispatch(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.String("kind", string(event.Kind)),
		zap.String("unit_id", event.UnitID.String()),
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID), zap.String("actor_role", event.ActorRole))
	}
	for k, v := range event.Detail {
		fields = append(fields, zap.String(k, v))
	}
	d.log.Info("event dispatched", fields...)
}

var Module = fx.Module("notification",
	fx.Provide(NewLogDispatcher),
)
