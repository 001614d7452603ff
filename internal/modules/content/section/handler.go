package section

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts section routes on rg. Middlewares apply to the write
// routes only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writes ...gin.HandlerFunc) {
	g := rg.Group("/sections")
	g.POST("", with(writes, h.create)...)
	g.GET("/:id", h.get)
	g.PUT("/:id", with(writes, h.update)...)
	g.PATCH("/:id", with(writes, h.update)...)
	g.DELETE("/:id", with(writes, h.delete)...)

	p := rg.Group("/pages/:pageType/:pageId/sections")
	p.GET("", h.list)
	p.PATCH("/reorder", with(writes, h.reorder)...)
}

// POST /sections
func (h *Handler) create(c *gin.Context) {
	var dto CreateSectionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err)
		return
	}
	section, err := h.svc.CreateSection(c.Request.Context(), &dto)
	response.Created(c, section, err)
}

// GET /sections/:id
func (h *Handler) get(c *gin.Context) {
	section, err := h.svc.GetSection(c.Request.Context(), c.Param("id"))
	response.OK(c, section, err)
}

// PUT /sections/:id
func (h *Handler) update(c *gin.Context) {
	var dto UpdateSectionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err)
		return
	}
	section, err := h.svc.UpdateSection(c.Request.Context(), c.Param("id"), &dto)
	response.OK(c, section, err)
}

// DELETE /sections/:id
func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	err := h.svc.DeleteSection(c.Request.Context(), id)
	response.OK(c, deleteResponse{ID: id, Deleted: true}, err)
}

// GET /pages/:pageType/:pageId/sections
func (h *Handler) list(c *gin.Context) {
	sections, err := h.svc.ListSections(c.Request.Context(), models.PageType(c.Param("pageType")), c.Param("pageId"))
	response.OK(c, sections, err)
}

// PATCH /pages/:pageType/:pageId/sections/reorder
func (h *Handler) reorder(c *gin.Context) {
	pageType := models.PageType(c.Param("pageType"))
	pageID := c.Param("pageId")

	var dto ReorderSectionsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := validatePage(pageType, pageID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.svc.ReorderSections(c.Request.Context(), pageID, dto.IDs); err != nil {
		response.Error(c, err)
		return
	}
	sections, err := h.svc.ListSections(c.Request.Context(), pageType, pageID)
	response.OK(c, sections, err)
}

func with(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(chain[:len(chain):len(chain)], h)
}
