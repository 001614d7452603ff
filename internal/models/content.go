package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

// ContentType tags the payload stored in a column's content_data.
type ContentType string

const (
	ContentRichText     ContentType = "rich_text"
	ContentPhotoGallery ContentType = "photo_gallery"
	ContentReferences   ContentType = "references"
)

// ContentTypes lists every column content variant.
var ContentTypes = []ContentType{ContentRichText, ContentPhotoGallery, ContentReferences}

func (t ContentType) Valid() bool {
	switch t {
	case ContentRichText, ContentPhotoGallery, ContentReferences:
		return true
	}
	return false
}

// DisplayMode controls how a photo gallery column renders.
type DisplayMode string

const (
	DisplayGallery  DisplayMode = "gallery"
	DisplayCarousel DisplayMode = "carousel"
	DisplayLoop     DisplayMode = "loop"
)

func (m DisplayMode) Valid() bool {
	switch m {
	case DisplayGallery, DisplayCarousel, DisplayLoop:
		return true
	}
	return false
}

// ReferenceType is the kind of entity a Reference points at.
type ReferenceType string

const (
	RefActivity      ReferenceType = "activity"
	RefEvent         ReferenceType = "event"
	RefAccommodation ReferenceType = "accommodation"
	RefLocation      ReferenceType = "location"
	RefContentPage   ReferenceType = "content_page"
)

// ReferenceTypes lists every referencable entity type.
var ReferenceTypes = []ReferenceType{RefActivity, RefEvent, RefAccommodation, RefLocation, RefContentPage}

func (t ReferenceType) Valid() bool {
	switch t {
	case RefActivity, RefEvent, RefAccommodation, RefLocation, RefContentPage:
		return true
	}
	return false
}

// Reference is a typed pointer from a page's content to another entity.
type Reference struct {
	Type  ReferenceType `json:"type"`
	ID    string        `json:"id"`
	Label string        `json:"label,omitempty"`
}

// Key identifies the referenced node in the reference graph.
func (r Reference) Key() string { return string(r.Type) + ":" + r.ID }

// Content is the tagged union stored in a column. Exactly one implementation
// exists per ContentType.
type Content interface {
	ContentType() ContentType
}

// RichTextContent is sanitized HTML.
type RichTextContent struct {
	HTML string `json:"html"`
}

// PhotoGalleryContent is an ordered list of photo ids and a display mode.
type PhotoGalleryContent struct {
	PhotoIDs    []string    `json:"photo_ids"`
	DisplayMode DisplayMode `json:"display_mode"`
}

// ReferencesContent is an ordered list of references to other entities.
type ReferencesContent struct {
	References []Reference `json:"references"`
}

func (RichTextContent) ContentType() ContentType     { return ContentRichText }
func (PhotoGalleryContent) ContentType() ContentType { return ContentPhotoGallery }
func (ReferencesContent) ContentType() ContentType   { return ContentReferences }

// ErrUnknownContentType is returned when decoding a payload with an unrecognized tag.
var ErrUnknownContentType = errors.New("unknown content type")

// ContentShapeError reports a payload that does not match its variant's shape.
type ContentShapeError struct {
	Field   string
	Message string
}

func (e *ContentShapeError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// DecodeContent decodes raw content_data into the variant selected by t.
// Every key of the variant is required; unknown keys are ignored.
func DecodeContent(t ContentType, raw []byte) (Content, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &ContentShapeError{Message: "content_data is required"}
	}

	switch t {
	case ContentRichText:
		var aux struct {
			HTML *string `json:"html"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return nil, &ContentShapeError{Message: err.Error()}
		}
		if aux.HTML == nil {
			return nil, &ContentShapeError{Field: "html", Message: "is required"}
		}
		return RichTextContent{HTML: *aux.HTML}, nil

	case ContentPhotoGallery:
		var aux struct {
			PhotoIDs    *[]string    `json:"photo_ids"`
			DisplayMode *DisplayMode `json:"display_mode"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return nil, &ContentShapeError{Message: err.Error()}
		}
		if aux.PhotoIDs == nil {
			return nil, &ContentShapeError{Field: "photo_ids", Message: "is required"}
		}
		if aux.DisplayMode == nil {
			return nil, &ContentShapeError{Field: "display_mode", Message: "is required"}
		}
		return PhotoGalleryContent{PhotoIDs: *aux.PhotoIDs, DisplayMode: *aux.DisplayMode}, nil

	case ContentReferences:
		var aux struct {
			References *[]Reference `json:"references"`
		}
		if err := json.Unmarshal(raw, &aux); err != nil {
			return nil, &ContentShapeError{Message: err.Error()}
		}
		if aux.References == nil {
			return nil, &ContentShapeError{Field: "references", Message: "is required"}
		}
		return ReferencesContent{References: *aux.References}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, t)
}

// EncodeContent serializes a variant for the content_data column.
func EncodeContent(c Content) (datatypes.JSON, error) {
	switch v := c.(type) {
	case PhotoGalleryContent:
		if v.PhotoIDs == nil {
			v.PhotoIDs = []string{}
		}
		c = v
	case ReferencesContent:
		if v.References == nil {
			v.References = []Reference{}
		}
		c = v
	case nil:
		return nil, &ContentShapeError{Message: "content_data is required"}
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
