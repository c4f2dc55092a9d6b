package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/models"
)

func init() { gin.SetMode(gin.TestMode) }

type memStore struct{ m map[string]json.RawMessage }

func (s *memStore) All(context.Context) (map[string]json.RawMessage, error) { return s.m, nil }

func (s *memStore) Upsert(_ context.Context, key string, value json.RawMessage) (*models.SiteSetting, error) {
	s.m[key] = value
	return &models.SiteSetting{Key: key, Value: value, UpdatedAt: time.Now()}, nil
}

func TestPutThenAll(t *testing.T) {
	store := &memStore{m: map[string]json.RawMessage{}}
	h := NewHandler(store, nil)
	r := gin.New()
	r.GET("/settings", h.All)
	r.PUT("/admin/settings/:key", h.Put)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/settings/hero_banner", strings.NewReader(`{"title":"Learn Go","cta":"/webinars"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[string]map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Learn Go", body.Data["hero_banner"]["title"])
}

func TestPut_Rejects(t *testing.T) {
	r := gin.New()
	r.PUT("/admin/settings/:key", NewHandler(&memStore{m: map[string]json.RawMessage{}}, nil).Put)

	tests := []struct{ name, key, body string }{
		{"bad key", "Hero%20Banner", `1`},
		{"bad json", "hero", `{nope`},
		{"too large", "hero", `"` + strings.Repeat("x", maxValueBytes) + `"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/admin/settings/"+tt.key, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
