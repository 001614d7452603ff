package version

import (
	"context"
	"errors"

	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/modules/content/section"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service snapshots a page's sections and restores them.
type Service struct {
	db       *gorm.DB
	sections *section.Service
	logger   *zap.Logger
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(db *gorm.DB, sections *section.Service, opts ...Option) *Service {
	s := &Service{db: db, sections: sections, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.Named("VersionService")
	return s
}

// CreateVersionSnapshot stores the page's current sections as the page's next
// version. Two snapshots racing for the same number fail on the unique
// (page_id, version) index instead of sharing it.
func (s *Service) CreateVersionSnapshot(ctx context.Context, pageType models.PageType, pageID string, userID *string) (v *models.ContentVersionModel, err error) {
	defer apperr.Recover(&err)

	sections, err := s.sections.ListSections(ctx, pageType, pageID)
	if err != nil {
		return nil, err
	}

	v = &models.ContentVersionModel{
		PageType:         pageType,
		PageID:           pageID,
		CreatedBy:        userID,
		SectionsSnapshot: datatypes.NewJSONType(sections),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.ContentVersionModel{}).
			Where("page_id = ?", pageID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		v.Version = last + 1
		return tx.Create(v).Error
	})
	if err != nil {
		return nil, apperr.DatabaseMsg(err, "Failed to create version snapshot")
	}

	s.logger.Info("version created", zap.String("id", v.ID), zap.Int("version", v.Version), zap.String("page_type", string(pageType)),
		zap.String("page_id", pageID), zap.Int("sections", len(sections)))
	return v, nil
}

// GetVersionHistory lists a page's versions, newest first.
func (s *Service) GetVersionHistory(ctx context.Context, pageID string) (versions []models.ContentVersionModel, err error) {
	defer apperr.Recover(&err)

	if err := requirePage(pageID); err != nil {
		return nil, err
	}
	versions = make([]models.ContentVersionModel, 0)
	err = s.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("version DESC").
		Find(&versions).Error
	if err != nil {
		return nil, apperr.DatabaseMsg(err, "Failed to fetch version history")
	}
	return versions, nil
}

// GetVersion returns one version of the page.
func (s *Service) GetVersion(ctx context.Context, pageID, versionID string) (v *models.ContentVersionModel, err error) {
	defer apperr.Recover(&err)

	if err := requirePage(pageID); err != nil {
		return nil, err
	}
	var version models.ContentVersionModel
	err = s.db.WithContext(ctx).First(&version, "id = ? AND page_id = ?", versionID, pageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Version not found")
	}
	if err != nil {
		return nil, apperr.DatabaseMsg(err, "Failed to fetch version")
	}
	return &version, nil
}

// RevertToVersion replaces the page's sections with the ones captured in the
// version. The replacement is a single transaction; on failure the current
// sections are left as they were.
func (s *Service) RevertToVersion(ctx context.Context, pageID, versionID string) (restored []models.SectionModel, err error) {
	defer apperr.Recover(&err)

	version, err := s.GetVersion(ctx, pageID, versionID)
	if err != nil {
		return nil, err
	}

	restored, err = s.sections.ReplacePageSections(ctx, version.PageType, version.PageID, version.Sections())
	if err != nil {
		s.logger.Warn("revert failed", zap.String("version_id", versionID), zap.String("page_id", pageID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("page reverted", zap.String("version_id", versionID), zap.String("page_id", pageID),
		zap.Int("sections", len(restored)))
	return restored, nil
}

func requirePage(pageID string) error {
	if pageID == "" {
		return apperr.Validation("Validation failed", apperr.Issue{Field: "page_id", Rule: "required", Message: "is required"})
	}
	return nil
}
