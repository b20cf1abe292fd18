package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is a snapshot of the connection pool exposed by the health
// endpoint.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// HealthStatus is the body of the database health response.
type HealthStatus struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	Pool   *PoolStats `json:"pool"`
}

// CollectStats snapshots the pool's counters. A pool with no open
// connections is reported unhealthy.
func CollectStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// healthResponse maps a ping result and pool snapshot to a status code and
// response body.
func healthResponse(stats *PoolStats, pingErr error) (int, *HealthStatus) {
	if pingErr != nil {
		stats.Healthy = false
		return http.StatusServiceUnavailable, &HealthStatus{
			Status: "unhealthy",
			Error:  pingErr.Error(),
			Pool:   stats,
		}
	}
	return http.StatusOK, &HealthStatus{Status: "healthy", Pool: stats}
}

// HealthHandler serves the database health check endpoint.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		code, body := healthResponse(CollectStats(pool), pool.Ping(ctx))
		return c.JSON(code, body)
	}
}
