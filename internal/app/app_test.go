package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mx-space/pagebuilder/internal/config"
	"github.com/mx-space/pagebuilder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(nil, &config.AppConfig{Env: "test", Port: 2333}, testutil.DB(t), nil)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a
}

func do(t *testing.T, a *App, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func sectionBody(pageType, pageID string, order int, column map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"page_type":     pageType,
		"page_id":       pageID,
		"display_order": order,
		"columns":       []interface{}{column},
	}
}

func refs(refType, id string) map[string]interface{} {
	return map[string]interface{}{
		"column_number": 1,
		"content_type":  "references",
		"content_data":  map[string]interface{}{"references": []interface{}{map[string]string{"type": refType, "id": id}}},
	}
}

func text(html string) map[string]interface{} {
	return map[string]interface{}{
		"column_number": 1,
		"content_type":  "rich_text",
		"content_data":  map[string]string{"html": html},
	}
}

func dataID(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestSectionLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)

	status, env := do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("home", "home", 0, text("<p>hi<script>x</script></p>")))
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)
	id := dataID(t, env)

	status, env = do(t, a, http.MethodGet, "/api/v1/sections/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
	var got struct {
		Columns []struct {
			ContentData struct {
				HTML string `json:"html"`
			} `json:"content_data"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Columns, 1)
	assert.Equal(t, "<p>hi</p>", got.Columns[0].ContentData.HTML)

	status, env = do(t, a, http.MethodGet, "/api/v1/pages/home/home/sections", nil)
	assert.Equal(t, http.StatusOK, status)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	status, env = do(t, a, http.MethodDelete, "/api/v1/sections/"+id, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"`+id+`","deleted":true}`, string(env.Data))

	status, env = do(t, a, http.MethodGet, "/api/v1/sections/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	a := newTestApp(t)

	status, env := do(t, a, http.MethodPost, "/api/v1/sections", `{"page_type":`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	status, env = do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("blog", "x", 0, text("a")))
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Contains(t, string(env.Error.Details), `"field":"page_type"`)
}

func TestCircularReferenceOverHTTP(t *testing.T) {
	a := newTestApp(t)
	pageA, pageB := uuid.NewString(), uuid.NewString()

	status, _ := do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("activity", pageA, 0, refs("activity", pageB)))
	require.Equal(t, http.StatusCreated, status)
	status, env := do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("activity", pageB, 0, text("b")))
	require.Equal(t, http.StatusCreated, status)
	onB := dataID(t, env)

	status, env = do(t, a, http.MethodPut, "/api/v1/sections/"+onB, map[string]interface{}{
		"columns": []interface{}{refs("activity", pageA)},
	})
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CIRCULAR_REFERENCE", env.Error.Code)

	status, env = do(t, a, http.MethodPost, "/api/v1/references/circular", map[string]interface{}{
		"page_id":    pageA,
		"references": []interface{}{map[string]string{"type": "activity", "id": pageA}},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"circular":true}`, string(env.Data))

	status, env = do(t, a, http.MethodPost, "/api/v1/references/validate", map[string]interface{}{
		"references": []interface{}{map[string]string{"type": "event", "id": pageB}},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"valid":false`)
}

func TestReorderOverHTTP(t *testing.T) {
	a := newTestApp(t)

	var ids []string
	for i := 0; i < 3; i++ {
		status, env := do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("event", "ev", i, text("s")))
		require.Equal(t, http.StatusCreated, status)
		ids = append(ids, dataID(t, env))
	}

	status, env := do(t, a, http.MethodPatch, "/api/v1/pages/event/ev/sections/reorder", map[string]interface{}{
		"ids": []string{ids[2], ids[0], ids[1]},
	})
	require.Equal(t, http.StatusOK, status)
	var list []struct {
		ID           string `json:"id"`
		DisplayOrder int    `json:"display_order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[0], list[1].ID)
	assert.Equal(t, ids[1], list[2].ID)
	assert.Equal(t, 2, list[2].DisplayOrder)
}

func TestVersionsOverHTTP(t *testing.T) {
	a := newTestApp(t)

	status, _ := do(t, a, http.MethodPost, "/api/v1/sections", sectionBody("custom", "about", 0, text("v1")))
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, a, http.MethodPost, "/api/v1/pages/custom/about/versions", nil, "X-User-ID", "editor-7")
	require.Equal(t, http.StatusCreated, status)
	versionID := dataID(t, env)
	assert.Contains(t, string(env.Data), `"created_by":"editor-7"`)

	status, env = do(t, a, http.MethodGet, "/api/v1/pages/custom/about/versions", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), versionID)

	status, env = do(t, a, http.MethodPost, "/api/v1/pages/custom/about/versions/"+versionID+"/revert", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "v1")

	status, env = do(t, a, http.MethodGet, "/api/v1/pages/custom/other/versions/"+versionID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHealthAndFallbacks(t *testing.T) {
	a := newTestApp(t)

	status, env := do(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"database":"ok"`)
	assert.Contains(t, string(env.Data), `"redis":"disabled"`)

	status, env = do(t, a, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)

	status, env = do(t, a, http.MethodGet, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), jobScanBrokenReferences)

	status, _ = do(t, a, http.MethodPost, "/api/v1/jobs/unknown/run", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
