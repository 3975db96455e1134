package connector

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectionStats is a point-in-time view of a connection pool, common to
// the database/sql and pgx pools.
type ConnectionStats struct {
	MaxOpen      int
	Open         int
	InUse        int
	Idle         int
	WaitCount    int64
	WaitDuration time.Duration
}

func sqlStats(s sql.DBStats) ConnectionStats {
	return ConnectionStats{
		MaxOpen:      s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

func pgxStats(s *pgxpool.Stat) ConnectionStats {
	return ConnectionStats{
		MaxOpen:      int(s.MaxConns()),
		Open:         int(s.TotalConns()),
		InUse:        int(s.AcquiredConns()),
		Idle:         int(s.IdleConns()),
		WaitCount:    s.EmptyAcquireCount(),
		WaitDuration: s.AcquireDuration(),
	}
}

// Saturated reports whether every connection the pool may open is in use.
// Unbounded pools are never saturated.
func (s ConnectionStats) Saturated() bool {
	return s.MaxOpen > 0 && s.InUse >= s.MaxOpen
}

func (s ConnectionStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("open", s.Open),
		slog.Int("in_use", s.InUse),
		slog.Int("idle", s.Idle),
		slog.Int64("waits", s.WaitCount),
		slog.Duration("wait", s.WaitDuration),
	)
}
