package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/licensedesk/internal/cache"
	"github.com/licensedesk/internal/models"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

var errDatabaseNotInitialized = errors.New("database not initialized")

// healthHandler 探活：数据库不可用返回 503；Redis 仅影响限流与缓存，异常时标记 degraded
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		database := "up"
		if err := pingDatabase(ctx); err != nil {
			database = "down"
			status = "down"
			code = http.StatusServiceUnavailable
		}

		redisState := "disabled"
		if cache.Enabled() {
			redisState = "up"
			if err := cache.Ping(ctx); err != nil {
				redisState = "down"
				if status == "ok" {
					status = "degraded"
				}
			}
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": database,
			"redis":    redisState,
		})
	}
}

func pingDatabase(ctx context.Context) error {
	if models.DB == nil {
		return errDatabaseNotInitialized
	}
	sqlDB, err := models.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
