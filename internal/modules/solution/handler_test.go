package solution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api"), func(c *gin.Context) { c.Next() })
	return r, f
}

func multipartCreate(t *testing.T, payload map[string]any, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("payload", string(raw)))
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/solutions", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlerCreateMultipart(t *testing.T) {
	r, f := newRouter(t)
	files := map[string][]byte{}
	images := make([]map[string]any, 3)
	for i := range images {
		field := fmt.Sprintf("image_%d", i)
		files[field] = pngFile(t, field, uint8(i)).Data
		images[i] = map[string]any{"file": field, "caption": fmt.Sprintf("c%d", i)}
	}
	files["icon"] = pngFile(t, "icon", 50).Data
	payload := map[string]any{
		"title": "Route Planner", "subtitle": "s", "description": "d",
		"status": "live", "sdg_goals": []int{9}, "images": images,
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartCreate(t, payload, files))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, "route-planner", out["id"])
	assert.NotEmpty(t, out["icon_url"])
	assert.Len(t, out["images"], 3)
	assert.Len(t, f.store.Keys(), 4)
}

func TestHandlerCreateMissingFileField(t *testing.T) {
	r, _ := newRouter(t)
	payload := map[string]any{
		"title": "x", "subtitle": "s", "description": "d",
		"images": []map[string]any{{"file": "nowhere"}},
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, multipartCreate(t, payload, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreateJSONNeedsImages(t *testing.T) {
	r, _ := newRouter(t)
	body := `{"title":"x","subtitle":"s","description":"d","images":[{"url":"https://cdn.example.com/a.jpg"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/solutions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["ok"])
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	r, f := newRouter(t)
	created, err := f.svc.Create(t.Context(), CreateInput{Fields: validFields("Edit Me"), Images: fileImages(t, 3)})
	require.NoError(t, err)

	body := fmt.Sprintf(`{"title":"Edited","subtitle":"s","description":"d","images":[{"id":%q}]}`, created.Images[2].ID)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/solutions/"+created.ID, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "Edited", out["title"])
	assert.Len(t, out["images"], 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/solutions/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/solutions/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/solutions/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerList(t *testing.T) {
	r, f := newRouter(t)
	_, err := f.svc.Create(t.Context(), CreateInput{Fields: validFields("Listed"), Images: fileImages(t, 3)})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/solutions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)
}
