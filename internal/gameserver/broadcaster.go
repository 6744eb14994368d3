package gameserver

import "log/slog"

// Effect is a send that still needs to happen once the registry mutex that
// produced it has been released. Targets and payload are captured while
// the game state that produced them is still locked, so a broadcast always
// reflects the exact player set at the moment of the state transition —
// only the actual socket write happens outside the lock.
type Effect struct {
	Targets []*Connection
	Payload []byte
}

// Broadcaster performs the actual, unlocked socket writes for a batch of
// Effects. A write error on one connection never stops delivery to the
// others; targets are written one after another, so a slow connection
// delays the targets after it.
type Broadcaster struct {
	log *slog.Logger
}

// NewBroadcaster returns a Broadcaster that logs per-connection failures.
func NewBroadcaster(log *slog.Logger) *Broadcaster {
	return &Broadcaster{log: log}
}

// Run delivers every effect's payload to every one of its targets,
// best-effort.
func (b *Broadcaster) Run(effects []Effect) {
	for _, eff := range effects {
		for _, target := range eff.Targets {
			if target == nil {
				continue
			}
			if err := target.Send(eff.Payload); err != nil {
				b.log.Warn("dropping frame to unresponsive connection",
					"connection_id", target.ID, "error", err)
			}
		}
	}
}
