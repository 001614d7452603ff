package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/middleware"
	"github.com/mx-space/pagebuilder/internal/modules/content/reference"
	"github.com/mx-space/pagebuilder/internal/modules/content/section"
	"github.com/mx-space/pagebuilder/internal/modules/content/version"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"github.com/mx-space/pagebuilder/internal/pkg/response"
	"github.com/mx-space/pagebuilder/internal/pkg/result"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() {
	r := a.router
	httpLogger := a.logger.Named("HTTP")

	r.NoRoute(response.NotFound)
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed,
			result.Fail[any](apperr.New(apperr.CodeValidation, "Method Not Allowed")))
	})
	r.GET("/health", a.health)

	api := r.Group(apiPrefix)
	api.Use(
		middleware.Actor(),
		middleware.RateLimit(a.rdb, 0, httpLogger),
		middleware.PurgeOnWrite(a.rdb, httpLogger),
		middleware.HTTPCache(a.rdb, middleware.HTTPCacheOptions{
			TTL:     a.cfg.Cache.TTL(),
			Disable: a.cfg.Cache.Disable,
		}),
	)

	var writes []gin.HandlerFunc
	if a.rdb != nil {
		writes = append(writes, middleware.Idempotence(a.rdb))
	}

	section.NewHandler(a.sections).RegisterRoutes(api, writes...)
	version.NewHandler(a.versions).RegisterRoutes(api, writes...)
	reference.NewHandler(a.sections.Validator(), a.sections.Detector(), a.sections).RegisterRoutes(api)

	jobs := api.Group("/jobs")
	jobs.GET("", a.listJobs)
	jobs.POST("/:name/run", a.runJob)
}

// GET /jobs
func (a *App) listJobs(c *gin.Context) {
	response.OK(c, a.sched.List(), nil)
}

// POST /jobs/:name/run
func (a *App) runJob(c *gin.Context) {
	name := c.Param("name")
	if _, err := a.sched.Get(name); err != nil {
		response.Error(c, apperr.NotFound(err.Error()))
		return
	}
	// the run outlives the request
	if err := a.sched.Run(context.WithoutCancel(c.Request.Context()), name); err != nil {
		response.Error(c, apperr.Wrap(err))
		return
	}
	info, err := a.sched.Get(name)
	response.OK(c, info, err)
}
