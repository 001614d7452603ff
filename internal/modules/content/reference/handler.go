package reference

import (
	"github.com/gin-gonic/gin"
	"github.com/mx-space/pagebuilder/internal/pkg/response"
)

type Handler struct {
	validator *Validator
	detector  *CycleDetector
	scanner   BrokenReferenceScanner
}

func NewHandler(validator *Validator, detector *CycleDetector, scanner BrokenReferenceScanner) *Handler {
	return &Handler{validator: validator, detector: detector, scanner: scanner}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/references")
	g.POST("/validate", h.validate)
	g.POST("/circular", h.circular)
	g.GET("/broken", h.broken)
}

// POST /references/validate
func (h *Handler) validate(c *gin.Context) {
	var dto ValidateReferencesDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err)
		return
	}
	res, err := h.validator.ValidateReferences(c.Request.Context(), dto.References)
	response.OK(c, res, err)
}

// POST /references/circular
func (h *Handler) circular(c *gin.Context) {
	var dto DetectCircularDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err)
		return
	}
	cyclic, err := h.detector.DetectCircularReferences(c.Request.Context(), dto.PageID, dto.References)
	response.OK(c, circularResponse{Circular: cyclic}, err)
}

// GET /references/broken
func (h *Handler) broken(c *gin.Context) {
	reports, err := h.scanner.ScanBrokenReferences(c.Request.Context())
	response.OK(c, reports, err)
}
