package models

import "gorm.io/datatypes"

// PageType is the namespace a section belongs to.
type PageType string

const (
	PageActivity      PageType = "activity"
	PageEvent         PageType = "event"
	PageAccommodation PageType = "accommodation"
	PageRoomType      PageType = "room_type"
	PageCustom        PageType = "custom"
	PageHome          PageType = "home"
)

// PageTypes lists every section namespace.
var PageTypes = []PageType{PageActivity, PageEvent, PageAccommodation, PageRoomType, PageCustom, PageHome}

func (t PageType) Valid() bool {
	switch t {
	case PageActivity, PageEvent, PageAccommodation, PageRoomType, PageCustom, PageHome:
		return true
	}
	return false
}

// SectionModel is one horizontal block of a page. It owns one or two columns.
type SectionModel struct {
	Base
	PageType     PageType      `json:"page_type"     gorm:"type:varchar(32);not null;index:idx_sections_page,priority:1"`
	PageID       string        `json:"page_id"       gorm:"type:varchar(191);not null;index:idx_sections_page,priority:2"`
	DisplayOrder int           `json:"display_order" gorm:"not null;default:0"`
	Columns      []ColumnModel `json:"columns"       gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE"`
}

func (SectionModel) TableName() string { return "sections" }

// ColumnModel is a content slot inside a section.
type ColumnModel struct {
	Base
	SectionID    string         `json:"section_id"    gorm:"type:char(36);not null;uniqueIndex:idx_section_column,priority:1"`
	ColumnNumber int            `json:"column_number" gorm:"not null;uniqueIndex:idx_section_column,priority:2"`
	ContentType  ContentType    `json:"content_type"  gorm:"type:varchar(32);not null"`
	ContentData  datatypes.JSON `json:"content_data"`
}

func (ColumnModel) TableName() string { return "section_columns" }

// Content decodes ContentData into the variant named by ContentType.
func (c ColumnModel) Content() (Content, error) {
	return DecodeContent(c.ContentType, c.ContentData)
}

// References returns the references held by a references column, or nil for
// any other column type.
func (c ColumnModel) References() ([]Reference, error) {
	if c.ContentType != ContentReferences {
		return nil, nil
	}
	content, err := c.Content()
	if err != nil {
		return nil, err
	}
	return content.(ReferencesContent).References, nil
}
