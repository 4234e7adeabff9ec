// Package observability aggregates the relay's runtime counters.
// Everything here is advisory: counters feed logs and the debug inspector,
// never control flow.
package observability

import (
	"runtime"
	"sync/atomic"
	"time"
)

// RelayStats holds atomic counters mutated from hot paths. A nil-safe zero
// value is deliberately not provided: every component receives the single
// instance built at startup.
type RelayStats struct {
	ConnectionsOpened    uint64
	ConnectionsClosed    uint64
	EventsRouted         uint64
	BroadcastsSent       uint64
	DroppedDeliveries    uint64
	NotificationsCreated uint64
	startedAt            time.Time
}

func NewRelayStats() *RelayStats {
	return &RelayStats{startedAt: time.Now().UTC()}
}

func (s *RelayStats) IncrConnectionsOpened() { atomic.AddUint64(&s.ConnectionsOpened, 1) }

func (s *RelayStats) IncrConnectionsClosed() { atomic.AddUint64(&s.ConnectionsClosed, 1) }

func (s *RelayStats) IncrEventsRouted() { atomic.AddUint64(&s.EventsRouted, 1) }

func (s *RelayStats) IncrBroadcasts() { atomic.AddUint64(&s.BroadcastsSent, 1) }

func (s *RelayStats) IncrDroppedDeliveries() { atomic.AddUint64(&s.DroppedDeliveries, 1) }

func (s *RelayStats) IncrNotificationsCreated() { atomic.AddUint64(&s.NotificationsCreated, 1) }

// Snapshot returns a point-in-time view for the heartbeat log line and the
// debug inspector's stats panel.
func (s *RelayStats) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"Uptime":               time.Since(s.startedAt).Round(time.Second).String(),
		"ConnectionsOpened":    atomic.LoadUint64(&s.ConnectionsOpened),
		"ConnectionsClosed":    atomic.LoadUint64(&s.ConnectionsClosed),
		"LiveConnections":      atomic.LoadUint64(&s.ConnectionsOpened) - atomic.LoadUint64(&s.ConnectionsClosed),
		"EventsRouted":         atomic.LoadUint64(&s.EventsRouted),
		"BroadcastsSent":       atomic.LoadUint64(&s.BroadcastsSent),
		"DroppedDeliveries":    atomic.LoadUint64(&s.DroppedDeliveries),
		"NotificationsCreated": atomic.LoadUint64(&s.NotificationsCreated),
		"AllocMemMb":           mem.Alloc / 1024 / 1024,
		"NumGC":                mem.NumGC,
	}
}
