//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"social-relay/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection's receiving end. Delivery is best-effort:
// a sink may drop the event under backpressure and still return nil, since
// the relay offers no acknowledgement channel.
type EventSink interface {
	Consume(ctx context.Context, event string, payload any) error
}

// IRegistry tracks which users currently hold live connections.
type IRegistry interface {
	// Add records a connection for a user. It reports whether this is the
	// user's first live connection (the online transition trigger).
	// Adding the same (user, conn) pair twice is a no-op.
	Add(userID, connID string) bool
	// Remove drops a connection and reports whether it was the user's last
	// (the offline transition trigger). The per-user entry disappears with
	// the last connection: absence is the canonical offline signal.
	Remove(userID, connID string) bool
	OnlineUsers() []string
	Contains(userID string) bool
}

// IRooms is the broadcast multiplexer: connections subscribe to named rooms,
// emissions reach every current subscriber.
type IRooms interface {
	Join(connID string, sink EventSink, rooms ...string)
	Leave(connID string, room string)
	LeaveAll(connID string)
	// Emit sends to every member of the room. Zero members is a silent no-op;
	// callers that need to detect an empty room use Count before emitting.
	Emit(ctx context.Context, room, event string, payload any)
	// EmitExcept behaves like Emit but skips one connection, typically the
	// originator of the event.
	EmitExcept(ctx context.Context, room, exceptConnID, event string, payload any)
	EmitAll(ctx context.Context, event string, payload any)
	Count(room string) int
}

// IIdentityResolver maps a caller-supplied id to the user's canonical and
// external ids. It never fails: an unknown id degrades to itself.
type IIdentityResolver interface {
	Resolve(ctx context.Context, suppliedID string) domain.Identity
}
