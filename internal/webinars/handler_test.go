package webinars

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

type memStore struct {
	items      map[uuid.UUID]*models.Webinar
	lastFilter Filter
}

func newMemStore(ws ...*models.Webinar) *memStore {
	m := &memStore{items: map[uuid.UUID]*models.Webinar{}}
	for _, w := range ws {
		m.items[w.ID] = w
	}
	return m
}

func (m *memStore) List(_ context.Context, f Filter) ([]models.Webinar, error) {
	m.lastFilter = f
	out := []models.Webinar{}
	for _, w := range m.items {
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.Featured != nil && w.IsFeatured != *f.Featured {
			continue
		}
		out = append(out, *w)
	}
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	if w, ok := m.items[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) GetBySlug(_ context.Context, slug string) (*models.Webinar, error) {
	for _, w := range m.items {
		if w.Slug == slug {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Create(_ context.Context, w *models.Webinar) error {
	for _, existing := range m.items {
		if existing.Slug == w.Slug {
			return ErrDuplicateSlug
		}
	}
	w.ID = uuid.New()
	w.AvailableSlots = w.TotalSlots
	cp := *w
	m.items[w.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, w *models.Webinar) error {
	old, ok := m.items[w.ID]
	if !ok {
		return ErrNotFound
	}
	w.AvailableSlots = old.AvailableSlots + w.TotalSlots - old.TotalSlots
	if w.AvailableSlots < 0 {
		w.AvailableSlots = 0
	}
	cp := *w
	m.items[w.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func router(store *memStore) *gin.Engine {
	h := NewHandler(store, nil)
	r := gin.New()
	r.GET("/webinars", h.List)
	r.GET("/webinars/:id", h.Get)
	r.GET("/admin/webinars", h.AdminList)
	r.POST("/admin/webinars", h.Create)
	r.PATCH("/admin/webinars/:id", h.Update)
	r.DELETE("/admin/webinars/:id", h.Delete)
	return r
}

func call(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func webinar(title, slug, status string) *models.Webinar {
	return &models.Webinar{
		ID: uuid.New(), Title: title, Slug: slug, Status: status,
		StartsAt: time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), TotalSlots: 10, AvailableSlots: 10,
	}
}

func TestList_PublicDefaultsToPublished(t *testing.T) {
	store := newMemStore(webinar("A", "a", models.WebinarStatusPublished), webinar("B", "b", models.WebinarStatusDraft))
	r := router(store)

	w := call(r, http.MethodGet, "/webinars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.WebinarStatusPublished, store.lastFilter.Status)
	assert.Contains(t, w.Body.String(), `"slug":"a"`)
	assert.NotContains(t, w.Body.String(), `"slug":"b"`)

	w = call(r, http.MethodGet, "/admin/webinars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.lastFilter.Status)

	w = call(r, http.MethodGet, "/webinars?featured=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.lastFilter.Featured)
	assert.True(t, *store.lastFilter.Featured)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/webinars?status=archived", nil).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/webinars?featured=maybe", nil).Code)
}

func TestGet_BySlugOrID(t *testing.T) {
	pub := webinar("Go", "go-basics", models.WebinarStatusPublished)
	draft := webinar("Hidden", "hidden", models.WebinarStatusDraft)
	r := router(newMemStore(pub, draft))

	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/webinars/go-basics", nil).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/webinars/"+pub.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/webinars/hidden", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/webinars/nope", nil).Code)
}

func TestCreate_SetsSlugAndSlots(t *testing.T) {
	store := newMemStore()
	r := router(store)

	w := call(r, http.MethodPost, "/admin/webinars", gin.H{
		"title":       "Intro to Go Routines!",
		"starts_at":   "2026-07-01T10:00:00Z",
		"price":       "499",
		"total_slots": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.items, 1)
	for _, got := range store.items {
		assert.Equal(t, "intro-to-go-routines", got.Slug)
		assert.Equal(t, 50, got.AvailableSlots)
		assert.Equal(t, models.WebinarStatusDraft, got.Status)
		assert.True(t, decimal.NewFromInt(499).Equal(got.Price))
	}

	w = call(r, http.MethodPost, "/admin/webinars", gin.H{"title": "Intro to Go Routines", "starts_at": "2026-07-02T10:00:00Z", "total_slots": 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(r, http.MethodPost, "/admin/webinars", gin.H{
		"title": "Bad", "starts_at": "2026-07-02T10:00:00Z", "ends_at": "2026-07-02T09:00:00Z", "total_slots": 5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodPost, "/admin/webinars", gin.H{"title": "Neg", "starts_at": "2026-07-02T10:00:00Z", "total_slots": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_PartialAndSlotShift(t *testing.T) {
	existing := webinar("Go", "go", models.WebinarStatusDraft)
	existing.AvailableSlots = 4 // 6 booked
	store := newMemStore(existing)
	r := router(store)

	w := call(r, http.MethodPatch, "/admin/webinars/"+existing.ID.String(), gin.H{"status": "published", "total_slots": 20})
	require.Equal(t, http.StatusOK, w.Code)
	got := store.items[existing.ID]
	assert.Equal(t, models.WebinarStatusPublished, got.Status)
	assert.Equal(t, "Go", got.Title)
	assert.Equal(t, 14, got.AvailableSlots)

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPatch, "/admin/webinars/"+uuid.NewString(), gin.H{"title": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPatch, "/admin/webinars/not-a-uuid", gin.H{}).Code)
}

func TestDelete(t *testing.T) {
	existing := webinar("Go", "go", models.WebinarStatusDraft)
	store := newMemStore(existing)
	r := router(store)

	assert.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/admin/webinars/"+existing.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/admin/webinars/"+existing.ID.String(), nil).Code)
}
