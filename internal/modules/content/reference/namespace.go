package reference

import "github.com/mx-space/pagebuilder/internal/models"

// sectionNamespaces maps a reference target to the page_type its own sections
// are stored under. Locations never own sections.
var sectionNamespaces = map[models.ReferenceType]models.PageType{
	models.RefActivity:      models.PageActivity,
	models.RefEvent:         models.PageEvent,
	models.RefAccommodation: models.PageAccommodation,
	models.RefContentPage:   models.PageCustom,
}

// SectionNamespace returns the page_type to search when following a reference
// of type t. ok is false for leaf types.
func SectionNamespace(t models.ReferenceType) (pageType models.PageType, ok bool) {
	pageType, ok = sectionNamespaces[t]
	return pageType, ok
}
