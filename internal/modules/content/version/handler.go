package version

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/middleware"
	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writes ...gin.HandlerFunc) {
	g := rg.Group("/pages/:pageType/:pageId/versions")
	g.GET("", h.history)
	g.POST("", append(writes[:len(writes):len(writes)], h.create)...)
	g.GET("/:versionId", h.get)
	g.POST("/:versionId/revert", append(writes[:len(writes):len(writes)], h.revert)...)
}

// GET /pages/:pageType/:pageId/versions
func (h *Handler) history(c *gin.Context) {
	versions, err := h.svc.GetVersionHistory(c.Request.Context(), c.Param("pageId"))
	response.OK(c, versions, err)
}

// POST /pages/:pageType/:pageId/versions
func (h *Handler) create(c *gin.Context) {
	v, err := h.svc.CreateVersionSnapshot(c.Request.Context(),
		models.PageType(c.Param("pageType")), c.Param("pageId"), middleware.UserID(c))
	response.Created(c, v, err)
}

// GET /pages/:pageType/:pageId/versions/:versionId
func (h *Handler) get(c *gin.Context) {
	v, err := h.svc.GetVersion(c.Request.Context(), c.Param("pageId"), c.Param("versionId"))
	response.OK(c, v, err)
}

// POST /pages/:pageType/:pageId/versions/:versionId/revert
func (h *Handler) revert(c *gin.Context) {
	sections, err := h.svc.RevertToVersion(c.Request.Context(), c.Param("pageId"), c.Param("versionId"))
	response.OK(c, sections, err)
}
