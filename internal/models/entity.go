package models

// Entities that sections can reference. The page composer only reads these.

type ActivityModel struct {
	SoftDeleteBase
	Name string `json:"name" gorm:"not null"`
}

func (ActivityModel) TableName() string { return "activities" }

type EventModel struct {
	SoftDeleteBase
	Name string `json:"name" gorm:"not null"`
}

func (EventModel) TableName() string { return "events" }

type AccommodationModel struct {
	SoftDeleteBase
	Name string `json:"name" gorm:"not null"`
}

func (AccommodationModel) TableName() string { return "accommodations" }

// ContentPageStatus is the publication state of a custom content page.
type ContentPageStatus string

const (
	ContentPageDraft     ContentPageStatus = "draft"
	ContentPagePublished ContentPageStatus = "published"
)

type ContentPageModel struct {
	SoftDeleteBase
	Name   string            `json:"name"   gorm:"not null"`
	Slug   string            `json:"slug"   gorm:"type:varchar(191);uniqueIndex"`
	Status ContentPageStatus `json:"status" gorm:"type:varchar(16);default:draft"`
}

func (ContentPageModel) TableName() string { return "content_pages" }

// LocationModel has no soft delete; a location row either exists or it doesn't.
type LocationModel struct {
	Base
	Name string `json:"name" gorm:"not null"`
}

func (LocationModel) TableName() string { return "locations" }
