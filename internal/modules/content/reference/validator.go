package reference

import (
	"context"
	"fmt"

	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Option configures a Validator or CycleDetector.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger; the component names it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validator checks that references point at live entities.
type Validator struct {
	store  EntityStore
	logger *zap.Logger
}

func NewValidator(store EntityStore, opts ...Option) *Validator {
	o := buildOptions(opts)
	return &Validator{store: store, logger: o.logger.Named("ReferenceValidator")}
}

// ValidateReferences reports every reference whose target is missing or
// soft-deleted, in input order. Store failures fail the whole call.
func (v *Validator) ValidateReferences(ctx context.Context, refs []models.Reference) (res ValidationResult, err error) {
	defer apperr.Recover(&err)

	if len(refs) == 0 {
		return ValidationResult{Valid: true, BrokenReferences: []models.Reference{}}, nil
	}
	if issues := referenceIssues("references", refs); len(issues) > 0 {
		return ValidationResult{}, apperr.Validation("Invalid references", issues...)
	}

	idsByType := make(map[models.ReferenceType][]string)
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref.Key()] {
			continue
		}
		seen[ref.Key()] = true
		idsByType[ref.Type] = append(idsByType[ref.Type], ref.ID)
	}

	existing := make(map[string]bool, len(seen))
	for _, refType := range models.ReferenceTypes {
		ids, ok := idsByType[refType]
		if !ok {
			continue
		}
		found, err := v.store.ExistingIDs(ctx, refType, ids)
		if err != nil {
			v.logger.Warn("reference lookup failed", zap.String("type", string(refType)), zap.Error(err))
			return ValidationResult{}, apperr.DatabaseMsg(err, "Failed to validate references")
		}
		for id := range found {
			existing[models.Reference{Type: refType, ID: id}.Key()] = true
		}
	}

	broken := make([]models.Reference, 0)
	for _, ref := range refs {
		if !existing[ref.Key()] {
			broken = append(broken, ref)
		}
	}
	if len(broken) > 0 {
		v.logger.Debug("broken references", zap.Int("count", len(broken)))
	}
	return ValidationResult{Valid: len(broken) == 0, BrokenReferences: broken}, nil
}

// referenceIssues reports references with an unknown type or empty id.
func referenceIssues(field string, refs []models.Reference) []apperr.Issue {
	var issues []apperr.Issue
	for i, ref := range refs {
		if !ref.Type.Valid() {
			issues = append(issues, apperr.Issue{
				Field:   fmt.Sprintf("%s[%d].type", field, i),
				Rule:    "oneof",
				Message: fmt.Sprintf("unknown reference type %q", ref.Type),
			})
		}
		if ref.ID == "" {
			issues = append(issues, apperr.Issue{
				Field:   fmt.Sprintf("%s[%d].id", field, i),
				Rule:    "required",
				Message: "reference id is required",
			})
		}
	}
	return issues
}
