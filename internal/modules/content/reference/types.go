package reference

import (
	"context"
	"errors"

	"github.com/mx-space/pagebuilder/internal/models"
)

// ErrUnknownReferenceType is returned by an EntityStore for a type it has no table for.
var ErrUnknownReferenceType = errors.New("unknown reference type")

// EntityStore answers existence questions about referencable entities.
type EntityStore interface {
	// ExistingIDs returns the subset of ids that exist and are live for refType.
	ExistingIDs(ctx context.Context, refType models.ReferenceType, ids []string) (map[string]bool, error)
}

// EdgeReader returns every reference held by the sections of one page.
type EdgeReader interface {
	OutgoingReferences(ctx context.Context, pageType models.PageType, pageID string) ([]models.Reference, error)
}

// ValidationResult lists references whose targets are missing or deleted.
type ValidationResult struct {
	Valid            bool               `json:"valid"`
	BrokenReferences []models.Reference `json:"broken_references"`
}

// BrokenReferenceReport is one section column that points at missing entities.
type BrokenReferenceReport struct {
	SectionID        string             `json:"section_id"`
	PageType         models.PageType    `json:"page_type"`
	PageID           string             `json:"page_id"`
	ColumnNumber     int                `json:"column_number"`
	BrokenReferences []models.Reference `json:"broken_references"`
}

// BrokenReferenceScanner walks stored content looking for broken references.
type BrokenReferenceScanner interface {
	ScanBrokenReferences(ctx context.Context) ([]BrokenReferenceReport, error)
}

type ValidateReferencesDTO struct {
	References []models.Reference `json:"references"`
}

type DetectCircularDTO struct {
	PageID     string             `json:"page_id"    binding:"required"`
	References []models.Reference `json:"references"`
}

type circularResponse struct {
	Circular bool `json:"circular"`
}
