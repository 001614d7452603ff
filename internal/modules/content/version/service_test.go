package version

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mx-space/pagebuilder/internal/models"
	"github.com/mx-space/pagebuilder/internal/modules/content/section"
	"github.com/mx-space/pagebuilder/internal/pkg/apperr"
	"github.com/mx-space/pagebuilder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	sections *section.Service
	versions *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	sections := section.NewService(db)
	return &fixture{db: db, sections: sections, versions: NewService(db, sections)}
}

func (f *fixture) addSection(t *testing.T, pageID string, order int, html string) *models.SectionModel {
	t.Helper()
	data, err := json.Marshal(map[string]string{"html": html})
	require.NoError(t, err)
	s, err := f.sections.CreateSection(context.Background(), &section.CreateSectionDTO{
		PageType:     models.PageCustom,
		PageID:       pageID,
		DisplayOrder: order,
		Columns: []section.ColumnDTO{
			{ColumnNumber: 1, ContentType: models.ContentRichText, ContentData: data},
		},
	})
	require.NoError(t, err)
	return s
}

func htmlOf(t *testing.T, s models.SectionModel) string {
	t.Helper()
	require.NotEmpty(t, s.Columns)
	content, err := s.Columns[0].Content()
	require.NoError(t, err)
	return content.(models.RichTextContent).HTML
}

func TestCreateVersionSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSection(t, "about", 1, "<p>second</p>")
	f.addSection(t, "about", 0, "<p>first</p>")

	user := "editor-1"
	v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", &user)
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())
	require.NotNil(t, v.CreatedBy)
	assert.Equal(t, "editor-1", *v.CreatedBy)

	stored, err := f.versions.GetVersion(ctx, "about", v.ID)
	require.NoError(t, err)
	snap := stored.Sections()
	require.Len(t, snap, 2)
	assert.Equal(t, "<p>first</p>", htmlOf(t, snap[0]))
	assert.Equal(t, "<p>second</p>", htmlOf(t, snap[1]))
}

func TestCreateVersionSnapshotOfEmptyPage(t *testing.T) {
	f := newFixture(t)

	v, err := f.versions.CreateVersionSnapshot(context.Background(), models.PageHome, "home", nil)
	require.NoError(t, err)
	assert.Nil(t, v.CreatedBy)
	assert.Empty(t, v.Sections())
}

func TestCreateVersionSnapshotValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.versions.CreateVersionSnapshot(context.Background(), "blog", "x", nil)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestGetVersionHistoryNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSection(t, "about", 0, "v")

	var ids []string
	for i := 0; i < 3; i++ {
		v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
		require.NoError(t, err)
		ids = append([]string{v.ID}, ids...)
	}
	_, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "other", nil)
	require.NoError(t, err)

	history, err := f.versions.GetVersionHistory(ctx, "about")
	require.NoError(t, err)
	got := make([]string, 0, len(history))
	for _, v := range history {
		got = append(got, v.ID)
	}
	assert.Equal(t, ids, got)

	none, err := f.versions.GetVersionHistory(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetVersionHistorySameTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addSection(t, "about", 0, "v")

	frozen := f.db.Session(&gorm.Session{NowFunc: func() time.Time { return testutil.Epoch }})
	versions := NewService(frozen, f.sections)

	var ids []string
	for i := 1; i <= 5; i++ {
		v, err := versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
		require.NoError(t, err)
		assert.Equal(t, i, v.Version)
		assert.True(t, v.CreatedAt.Equal(testutil.Epoch))
		ids = append([]string{v.ID}, ids...)
	}
	other, err := versions.CreateVersionSnapshot(ctx, models.PageCustom, "other", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)

	history, err := versions.GetVersionHistory(ctx, "about")
	require.NoError(t, err)
	got := make([]string, 0, len(history))
	for _, v := range history {
		got = append(got, v.ID)
	}
	assert.Equal(t, ids, got)
}

func TestCreateVersionSnapshotInsertFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fail := testutil.FailInserts(t, f.db, "content_versions")
	_, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
	assert.Equal(t, apperr.CodeDatabase, apperr.CodeOf(err))

	fail.Store(false)
	v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)
}

func TestGetVersionScopedToPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
	require.NoError(t, err)

	_, err = f.versions.GetVersion(ctx, "contact", v.ID)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.CodeNotFound, ae.Code)
	assert.Equal(t, "Version not found", ae.Message)
}

func TestRevertToVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.addSection(t, "about", 0, "<p>one</p>")
	f.addSection(t, "about", 5, "<p>two</p>")
	v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
	require.NoError(t, err)

	require.NoError(t, f.sections.DeleteSection(ctx, first.ID))
	f.addSection(t, "about", 1, "<p>added later</p>")

	restored, err := f.versions.RevertToVersion(ctx, "about", v.ID)
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, 0, restored[0].DisplayOrder)
	assert.Equal(t, 5, restored[1].DisplayOrder)
	assert.Equal(t, "<p>one</p>", htmlOf(t, restored[0]))
	assert.Equal(t, "<p>two</p>", htmlOf(t, restored[1]))
	assert.NotEqual(t, first.ID, restored[0].ID)

	current, err := f.sections.ListSections(ctx, models.PageCustom, "about")
	require.NoError(t, err)
	assert.Equal(t, restored[0].ID, current[0].ID)
	assert.Len(t, current, 2)

	history, err := f.versions.GetVersionHistory(ctx, "about")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRevertToVersionNotFound(t *testing.T) {
	f := newFixture(t)
	current := f.addSection(t, "about", 0, "<p>now</p>")

	_, err := f.versions.RevertToVersion(context.Background(), "about", uuid.NewString())
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.sections.GetSection(context.Background(), current.ID)
	require.NoError(t, err)
}

func TestRevertToVersionFailureKeepsCurrentSections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addSection(t, "about", 0, "<p>old</p>")
	v, err := f.versions.CreateVersionSnapshot(ctx, models.PageCustom, "about", nil)
	require.NoError(t, err)

	sections, err := f.sections.ListSections(ctx, models.PageCustom, "about")
	require.NoError(t, err)
	for _, s := range sections {
		require.NoError(t, f.sections.DeleteSection(ctx, s.ID))
	}
	current := f.addSection(t, "about", 0, "<p>current</p>")

	testutil.FailInserts(t, f.db, "section_columns")
	_, err = f.versions.RevertToVersion(ctx, "about", v.ID)
	assert.Equal(t, apperr.CodeDatabase, apperr.CodeOf(err))

	after, err := f.sections.ListSections(ctx, models.PageCustom, "about")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, current.ID, after[0].ID)
	assert.Equal(t, "<p>current</p>", htmlOf(t, after[0]))
}

func TestVersionQueryFailure(t *testing.T) {
	f := newFixture(t)
	testutil.FailQueries(t, f.db, "content_versions")

	_, err := f.versions.GetVersionHistory(context.Background(), "about")
	assert.Equal(t, apperr.CodeDatabase, apperr.CodeOf(err))
}
