package section

import (
	"encoding/json"

	"github.com/mx-space/pagebuilder/internal/models"
)

type ColumnDTO struct {
	ColumnNumber int                `json:"column_number" validate:"oneof=1 2"`
	ContentType  models.ContentType `json:"content_type"  validate:"required,oneof=rich_text photo_gallery references"`
	ContentData  json.RawMessage    `json:"content_data"  validate:"required"`
}

type CreateSectionDTO struct {
	PageType     models.PageType `json:"page_type"     validate:"required,oneof=activity event accommodation room_type custom home"`
	PageID       string          `json:"page_id"       validate:"required"`
	DisplayOrder int             `json:"display_order" validate:"gte=0"`
	Columns      []ColumnDTO     `json:"columns"       validate:"required,min=1,max=2,unique=ColumnNumber,dive"`
}

// UpdateSectionDTO changes only the fields that are present. Columns, when
// present, replace every existing column of the section.
type UpdateSectionDTO struct {
	PageType     *models.PageType `json:"page_type"     validate:"omitempty,oneof=activity event accommodation room_type custom home"`
	PageID       *string          `json:"page_id"       validate:"omitempty,min=1"`
	DisplayOrder *int             `json:"display_order" validate:"omitempty,gte=0"`
	Columns      []ColumnDTO      `json:"columns"       validate:"omitempty,min=1,max=2,unique=ColumnNumber,dive"`
}

type ReorderSectionsDTO struct {
	IDs []string `json:"ids" validate:"unique,dive,required"`
}

// ReorderFailure is one section whose display_order could not be written.
type ReorderFailure struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Error string `json:"error"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
