package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	pkgredis "github.com/mx-space/pagebuilder/internal/pkg/redis"
	"github.com/mx-space/pagebuilder/internal/pkg/response"
)

var processStart = time.Now()

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Uptime   string `json:"uptime"`
}

// GET /health
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok", Database: "ok", Redis: "disabled", Uptime: humanizeDuration(time.Since(processStart))}
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		res.Status, res.Database = "degraded", "unreachable"
	}
	if a.rdb != nil {
		res.Redis = "ok"
		if err := pkgredis.Ping(ctx, a.rdb); err != nil {
			res.Status, res.Redis = "degraded", "unreachable"
		}
	}

	if res.Database != "ok" {
		e := apperr.New(apperr.CodeDatabase, "Database unreachable")
		e.Details = res
		response.Error(c, e)
		return
	}
	response.OK(c, res, nil)
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
