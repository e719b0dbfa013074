package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/crowdlens/crowdlens/pkg/logger"
)

// HealthHandler provides the liveness and readiness endpoints. The redis
// client is nil when the cache backend is not redis.
type HealthHandler struct {
	redis redis.UniversalClient
	log   logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(redisClient redis.UniversalClient, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		redis: redisClient,
		log:   log,
	}
}

// LivenessCheck reports whether the process is alive.
// GET /health/live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// HealthCheck reports the health of the service and its dependencies.
// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	checks := h.performChecks(c.Request.Context())

	httpStatus := http.StatusOK
	for _, checkStatus := range checks {
		if checkStatus != "ok" {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// ReadinessCheck reports whether the service is ready for traffic.
// GET /health/ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	var wg sync.WaitGroup
	checks := make(map[string]string)
	mu := &sync.Mutex{}

	if h.redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.checkRedis(ctx, mu, checks)
		}()
	}
	wg.Wait()
	return checks
}

func (h *HealthHandler) checkRedis(ctx context.Context, mu *sync.Mutex, checks map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := "ok"
	if err := h.redis.Ping(ctx).Err(); err != nil {
		status = "error: " + err.Error()
	}
	mu.Lock()
	checks["redis"] = status
	mu.Unlock()
}
