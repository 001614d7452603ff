package section

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/modules/content/reference"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reorderConcurrency = 8

// Service stores sections and their columns. It is also the edge reader the
// cycle detector walks.
type Service struct {
	db        *gorm.DB
	store     reference.EntityStore
	detector  *reference.CycleDetector
	validator *reference.Validator
	root      *zap.Logger
	logger    *zap.Logger
}

func NewService(db *gorm.DB, opts ...ServiceOption) *Service {
	s := &Service{db: db, root: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.store == nil {
		s.store = reference.NewGormEntityStore(db)
	}
	s.logger = s.root.Named("SectionService")
	s.detector = reference.NewCycleDetector(s, reference.WithLogger(s.root))
	s.validator = reference.NewValidator(s.store, reference.WithLogger(s.root))
	return s
}

// ServiceOption configures a section Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the section service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.root = l
		}
	}
}

// WithEntityStore replaces the gorm-backed entity lookup.
func WithEntityStore(store reference.EntityStore) ServiceOption {
	return func(s *Service) { s.store = store }
}

// Detector returns the cycle detector that reads this service's sections.
func (s *Service) Detector() *reference.CycleDetector { return s.detector }

// Validator returns the reference validator used by ScanBrokenReferences.
func (s *Service) Validator() *reference.Validator { return s.validator }

func orderColumns(db *gorm.DB) *gorm.DB { return db.Order("column_number ASC") }

// CreateSection inserts a section and its columns in one transaction.
func (s *Service) CreateSection(ctx context.Context, dto *CreateSectionDTO) (section *models.SectionModel, err error) {
	defer apperr.Recover(&err)

	if err := validateStruct(dto); err != nil {
		return nil, err
	}
	columns, err := buildColumns(dto.Columns)
	if err != nil {
		return nil, err
	}

	created := &models.SectionModel{
		PageType:     dto.PageType,
		PageID:       dto.PageID,
		DisplayOrder: dto.DisplayOrder,
	}
	if err := s.transaction(ctx, "create section", func(tx *gorm.DB) error {
		return insertSection(tx, created, columns)
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("section created", zap.String("id", created.ID), zap.String("page_id", created.PageID))
	return created, nil
}

// GetSection returns a section with its columns ordered by column number.
func (s *Service) GetSection(ctx context.Context, id string) (section *models.SectionModel, err error) {
	defer apperr.Recover(&err)
	return s.getSection(s.db.WithContext(ctx), id)
}

func (s *Service) getSection(db *gorm.DB, id string) (*models.SectionModel, error) {
	var section models.SectionModel
	if err := db.Preload("Columns", orderColumns).First(&section, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Section not found")
		}
		return nil, apperr.DatabaseMsg(err, "Failed to fetch section")
	}
	return &section, nil
}

// UpdateSection applies the present fields of dto. Supplied columns replace
// the stored ones. New references are checked for cycles against the page
// the section belongs to, and the page it moves to.
func (s *Service) UpdateSection(ctx context.Context, id string, dto *UpdateSectionDTO) (section *models.SectionModel, err error) {
	defer apperr.Recover(&err)

	if err := validateStruct(dto); err != nil {
		return nil, err
	}
	var columns []models.ColumnModel
	if dto.Columns != nil {
		if columns, err = buildColumns(dto.Columns); err != nil {
			return nil, err
		}
	}

	if err := s.checkUpdateCycles(ctx, id, dto, columns); err != nil {
		return nil, err
	}

	if err := s.transaction(ctx, "update section", func(tx *gorm.DB) error {
		var current models.SectionModel
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": tx.NowFunc()}
		if dto.PageType != nil {
			updates["page_type"] = *dto.PageType
		}
		if dto.PageID != nil {
			updates["page_id"] = *dto.PageID
		}
		if dto.DisplayOrder != nil {
			updates["display_order"] = *dto.DisplayOrder
		}
		if err := tx.Model(&current).Updates(updates).Error; err != nil {
			return err
		}

		if columns == nil {
			return nil
		}
		if err := tx.Where("section_id = ?", id).Delete(&models.ColumnModel{}).Error; err != nil {
			return err
		}
		for i := range columns {
			columns[i].SectionID = id
		}
		return tx.Create(&columns).Error
	}); err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, apperr.NotFound("Section not found")
		}
		return nil, err
	}

	return s.getSection(s.db.WithContext(ctx), id)
}

func (s *Service) checkUpdateCycles(ctx context.Context, id string, dto *UpdateSectionDTO, columns []models.ColumnModel) error {
	refs, err := columnReferences(columns)
	if err != nil {
		return err
	}
	moving := dto.PageID != nil
	if len(refs) == 0 && !moving {
		return nil
	}

	current, err := s.getSection(s.db.WithContext(ctx), id)
	if err != nil {
		return err
	}

	var targets []string
	if columns != nil {
		targets = append(targets, current.PageID)
	} else if refs, err = columnReferences(current.Columns); err != nil {
		// the section moves with its stored references
		return apperr.DatabaseMsg(err, "Failed to read section columns")
	}
	if moving && *dto.PageID != current.PageID {
		targets = append(targets, *dto.PageID)
	}
	if len(refs) == 0 {
		return nil
	}

	for _, pageID := range targets {
		cyclic, err := s.detector.DetectCircularReferences(ctx, pageID, refs)
		if err != nil {
			return err
		}
		if cyclic {
			s.logger.Info("rejected circular reference", zap.String("section_id", id), zap.String("page_id", pageID))
			return apperr.CircularReference()
		}
	}
	return nil
}

// DeleteSection removes a section and its columns.
func (s *Service) DeleteSection(ctx context.Context, id string) (err error) {
	defer apperr.Recover(&err)

	err = s.transaction(ctx, "delete section", func(tx *gorm.DB) error {
		if err := tx.Where("section_id = ?", id).Delete(&models.ColumnModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.SectionModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return apperr.NotFound("Section not found")
	}
	return err
}

// ListSections returns a page's sections in display order. Ties keep
// creation order.
func (s *Service) ListSections(ctx context.Context, pageType models.PageType, pageID string) (sections []models.SectionModel, err error) {
	defer apperr.Recover(&err)

	if err := validatePage(pageType, pageID); err != nil {
		return nil, err
	}
	return s.listSections(s.db.WithContext(ctx), pageType, pageID)
}

func (s *Service) listSections(db *gorm.DB, pageType models.PageType, pageID string) ([]models.SectionModel, error) {
	sections := make([]models.SectionModel, 0)
	err := db.Preload("Columns", orderColumns).
		Where("page_type = ? AND page_id = ?", pageType, pageID).
		Order("display_order ASC, created_at ASC, id ASC").
		Find(&sections).Error
	if err != nil {
		return nil, apperr.DatabaseMsg(err, "Failed to fetch sections")
	}
	return sections, nil
}

// ReorderSections sets display_order to each id's index. The writes run
// concurrently and are not atomic: on failure some sections may already
// carry their new position.
func (s *Service) ReorderSections(ctx context.Context, pageID string, orderedIDs []string) (err error) {
	defer apperr.Recover(&err)

	if pageID == "" {
		return apperr.Validation("Validation failed", apperr.Issue{Field: "page_id", Rule: "required", Message: "is required"})
	}
	if err := validateStruct(&ReorderSectionsDTO{IDs: orderedIDs}); err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []ReorderFailure
		g        errgroup.Group
	)
	g.SetLimit(reorderConcurrency)
	for i, id := range orderedIDs {
		g.Go(func() error {
			err := s.db.WithContext(ctx).Model(&models.SectionModel{}).
				Where("id = ? AND page_id = ?", id, pageID).
				Update("display_order", i).Error
			if err != nil {
				mu.Lock()
				failures = append(failures, ReorderFailure{ID: id, Index: i, Error: err.Error()})
				mu.Unlock()
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
		s.logger.Warn("reorder failed", zap.String("page_id", pageID), zap.Int("failed", len(failures)), zap.Error(err))
		e := apperr.New(apperr.CodeDatabase, "Failed to reorder sections")
		e.Details = failures
		return e
	}
	return nil
}

// OutgoingReferences returns every reference held by the page's sections,
// read with a single query.
func (s *Service) OutgoingReferences(ctx context.Context, pageType models.PageType, pageID string) ([]models.Reference, error) {
	var columns []models.ColumnModel
	err := s.db.WithContext(ctx).
		Select("section_columns.*").
		Joins("JOIN sections ON sections.id = section_columns.section_id").
		Where("sections.page_type = ? AND sections.page_id = ? AND section_columns.content_type = ?",
			pageType, pageID, models.ContentReferences).
		Order("sections.display_order ASC, sections.created_at ASC, section_columns.column_number ASC").
		Find(&columns).Error
	if err != nil {
		return nil, err
	}
	return columnReferences(columns)
}

// ReplacePageSections deletes every section of the page and recreates the
// given ones with new identities, in one transaction.
func (s *Service) ReplacePageSections(ctx context.Context, pageType models.PageType, pageID string, sections []models.SectionModel) (restored []models.SectionModel, err error) {
	defer apperr.Recover(&err)

	if err := validatePage(pageType, pageID); err != nil {
		return nil, err
	}

	type pending struct {
		section *models.SectionModel
		columns []models.ColumnModel
	}
	plan := make([]pending, 0, len(sections))
	for _, snap := range sections {
		dto := &CreateSectionDTO{
			PageType:     pageType,
			PageID:       pageID,
			DisplayOrder: snap.DisplayOrder,
			Columns:      make([]ColumnDTO, 0, len(snap.Columns)),
		}
		for _, col := range snap.Columns {
			dto.Columns = append(dto.Columns, ColumnDTO{
				ColumnNumber: col.ColumnNumber,
				ContentType:  col.ContentType,
				ContentData:  json.RawMessage(col.ContentData),
			})
		}
		if err := validateStruct(dto); err != nil {
			return nil, err
		}
		columns, err := buildColumns(dto.Columns)
		if err != nil {
			return nil, err
		}
		plan = append(plan, pending{
			section: &models.SectionModel{PageType: pageType, PageID: pageID, DisplayOrder: snap.DisplayOrder},
			columns: columns,
		})
	}

	err = s.transaction(ctx, "replace page sections", func(tx *gorm.DB) error {
		owned := tx.Model(&models.SectionModel{}).Select("id").
			Where("page_type = ? AND page_id = ?", pageType, pageID)
		if err := tx.Where("section_id IN (?)", owned).Delete(&models.ColumnModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("page_type = ? AND page_id = ?", pageType, pageID).Delete(&models.SectionModel{}).Error; err != nil {
			return err
		}
		for _, p := range plan {
			if err := insertSection(tx, p.section, p.columns); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page sections replaced", zap.String("page_type", string(pageType)),
		zap.String("page_id", pageID), zap.Int("sections", len(plan)))
	return s.listSections(s.db.WithContext(ctx), pageType, pageID)
}

// ScanBrokenReferences reports every references column that points at a
// missing or deleted entity.
func (s *Service) ScanBrokenReferences(ctx context.Context) (reports []reference.BrokenReferenceReport, err error) {
	defer apperr.Recover(&err)

	var sections []models.SectionModel
	withRefs := s.db.Model(&models.ColumnModel{}).Select("section_id").
		Where("content_type = ?", models.ContentReferences)
	err = s.db.WithContext(ctx).
		Preload("Columns", func(db *gorm.DB) *gorm.DB {
			return db.Where("content_type = ?", models.ContentReferences).Order("column_number ASC")
		}).
		Where("id IN (?)", withRefs).
		Order("page_type ASC, page_id ASC, display_order ASC, created_at ASC").
		Find(&sections).Error
	if err != nil {
		return nil, apperr.DatabaseMsg(err, "Failed to scan sections")
	}

	var all []models.Reference
	for _, section := range sections {
		refs, err := columnReferences(section.Columns)
		if err != nil {
			return nil, apperr.DatabaseMsg(err, fmt.Sprintf("Section %s has malformed references", section.ID))
		}
		all = append(all, refs...)
	}
	result, err := s.validator.ValidateReferences(ctx, all)
	if err != nil {
		return nil, err
	}
	broken := make(map[string]bool, len(result.BrokenReferences))
	for _, ref := range result.BrokenReferences {
		broken[ref.Key()] = true
	}

	reports = make([]reference.BrokenReferenceReport, 0)
	for _, section := range sections {
		for _, col := range section.Columns {
			refs, _ := col.References()
			var bad []models.Reference
			for _, ref := range refs {
				if broken[ref.Key()] {
					bad = append(bad, ref)
				}
			}
			if len(bad) == 0 {
				continue
			}
			reports = append(reports, reference.BrokenReferenceReport{
				SectionID:        section.ID,
				PageType:         section.PageType,
				PageID:           section.PageID,
				ColumnNumber:     col.ColumnNumber,
				BrokenReferences: bad,
			})
		}
	}
	return reports, nil
}

func insertSection(tx *gorm.DB, section *models.SectionModel, columns []models.ColumnModel) error {
	if err := tx.Omit(clause.Associations).Create(section).Error; err != nil {
		return err
	}
	for i := range columns {
		columns[i].SectionID = section.ID
	}
	if err := tx.Create(&columns).Error; err != nil {
		return err
	}
	section.Columns = columns
	return nil
}

// transaction runs fn in a database transaction. A failing fn rolls back; the
// rollback outcome is logged and fn's error is returned as the cause.
func (s *Service) transaction(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperr.DatabaseMsg(tx.Error, "Failed to "+op)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			s.logger.Error("rollback failed", zap.String("op", op), zap.NamedError("cause", err), zap.Error(rbErr))
		} else {
			s.logger.Warn("transaction rolled back", zap.String("op", op), zap.Error(err))
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.DatabaseMsg(err, "Failed to "+op)
	}
	if err := tx.Commit().Error; err != nil {
		return apperr.DatabaseMsg(err, "Failed to "+op)
	}
	return nil
}
