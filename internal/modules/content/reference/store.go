package reference

import (
	"context"
	"fmt"

	"github.com/mx-space/pagebuilder/internal/models"
	"gorm.io/gorm"
)

// GormEntityStore looks entities up in their own tables. Soft-deleted rows are
// hidden by gorm's default scope; locations have no soft delete.
type GormEntityStore struct{ db *gorm.DB }

func NewGormEntityStore(db *gorm.DB) *GormEntityStore { return &GormEntityStore{db: db} }

func entityModel(t models.ReferenceType) (interface{}, error) {
	switch t {
	case models.RefActivity:
		return &models.ActivityModel{}, nil
	case models.RefEvent:
		return &models.EventModel{}, nil
	case models.RefAccommodation:
		return &models.AccommodationModel{}, nil
	case models.RefLocation:
		return &models.LocationModel{}, nil
	case models.RefContentPage:
		return &models.ContentPageModel{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReferenceType, t)
}

func (s *GormEntityStore) ExistingIDs(ctx context.Context, refType models.ReferenceType, ids []string) (map[string]bool, error) {
	model, err := entityModel(refType)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var rows []string
	if err := s.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &rows).Error; err != nil {
		return nil, err
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}
