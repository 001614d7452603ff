package section

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"github.com/mx-space/pagebuilder/internal/pkg/sanitize"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(apperr.JSONTagName)
	return v
}

func validateStruct(dto interface{}) error {
	if err := validate.Struct(dto); err != nil {
		return apperr.FromValidation(err)
	}
	return nil
}

func validatePage(pageType models.PageType, pageID string) error {
	var issues []apperr.Issue
	if !pageType.Valid() {
		issues = append(issues, apperr.Issue{Field: "page_type", Rule: "oneof", Message: fmt.Sprintf("unknown page type %q", pageType)})
	}
	if pageID == "" {
		issues = append(issues, apperr.Issue{Field: "page_id", Rule: "required", Message: "is required"})
	}
	if len(issues) > 0 {
		return apperr.Validation("Validation failed", issues...)
	}
	return nil
}

// buildColumns checks every column payload against its content type and
// returns models ready to insert, with rich text sanitized.
func buildColumns(dtos []ColumnDTO) ([]models.ColumnModel, error) {
	var issues []apperr.Issue
	columns := make([]models.ColumnModel, 0, len(dtos))

	for i, dto := range dtos {
		field := fmt.Sprintf("columns[%d].content_data", i)
		content, err := models.DecodeContent(dto.ContentType, dto.ContentData)
		if err != nil {
			issues = append(issues, shapeIssue(field, err))
			continue
		}
		content, contentIssues := checkContent(field, content)
		if len(contentIssues) > 0 {
			issues = append(issues, contentIssues...)
			continue
		}
		data, err := models.EncodeContent(content)
		if err != nil {
			issues = append(issues, shapeIssue(field, err))
			continue
		}
		columns = append(columns, models.ColumnModel{
			ColumnNumber: dto.ColumnNumber,
			ContentType:  dto.ContentType,
			ContentData:  data,
		})
	}

	if len(issues) > 0 {
		return nil, apperr.Validation("Validation failed", issues...)
	}
	return columns, nil
}

func shapeIssue(field string, err error) apperr.Issue {
	var se *models.ContentShapeError
	if errors.As(err, &se) && se.Field != "" {
		return apperr.Issue{Field: field + "." + se.Field, Rule: "required", Message: se.Message}
	}
	return apperr.Issue{Field: field, Rule: "shape", Message: err.Error()}
}

func checkContent(field string, content models.Content) (models.Content, []apperr.Issue) {
	var issues []apperr.Issue

	switch c := content.(type) {
	case models.RichTextContent:
		c.HTML = sanitize.RichText(c.HTML)
		return c, nil

	case models.PhotoGalleryContent:
		for i, id := range c.PhotoIDs {
			if _, err := uuid.Parse(id); err != nil {
				issues = append(issues, apperr.Issue{
					Field: fmt.Sprintf("%s.photo_ids[%d]", field, i), Rule: "uuid", Message: "must be a valid UUID",
				})
			}
		}
		if !c.DisplayMode.Valid() {
			issues = append(issues, apperr.Issue{
				Field: field + ".display_mode", Rule: "oneof", Message: "must be one of: gallery carousel loop",
			})
		}
		return c, issues

	case models.ReferencesContent:
		for i, ref := range c.References {
			if !ref.Type.Valid() {
				issues = append(issues, apperr.Issue{
					Field:   fmt.Sprintf("%s.references[%d].type", field, i),
					Rule:    "oneof",
					Message: "must be one of: activity event accommodation location content_page",
				})
			}
			if _, err := uuid.Parse(ref.ID); err != nil {
				issues = append(issues, apperr.Issue{
					Field: fmt.Sprintf("%s.references[%d].id", field, i), Rule: "uuid", Message: "must be a valid UUID",
				})
			}
		}
		return c, issues
	}

	return content, []apperr.Issue{{Field: field, Rule: "shape", Message: "unsupported content"}}
}

// columnReferences collects the references held by references columns.
func columnReferences(columns []models.ColumnModel) ([]models.Reference, error) {
	var refs []models.Reference
	for _, col := range columns {
		r, err := col.References()
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}
	return refs, nil
}
