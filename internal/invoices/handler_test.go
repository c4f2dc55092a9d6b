package invoices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/auth"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/orders"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeGen struct {
	kind   string
	userID uuid.UUID
	err    error
}

func (f *fakeGen) ForUser(_ context.Context, kind string, _, userID uuid.UUID) (*Document, error) {
	f.kind, f.userID = kind, userID
	if f.err != nil {
		return nil, f.err
	}
	return &Document{Number: "INV-1", Filename: "INV-1.pdf", PDF: []byte("%PDF-1.3")}, nil
}

func (f *fakeGen) ForAdmin(_ context.Context, kind string, _ uuid.UUID) (*Document, error) {
	f.kind = kind
	if f.err != nil {
		return nil, f.err
	}
	return &Document{Number: "INV-2", Filename: "INV-2.pdf", PDF: []byte("%PDF-1.3")}, nil
}

func (f *fakeGen) Link(context.Context, string, uuid.UUID) (string, error) {
	return "https://signed/x", f.err
}

func TestRegistrationInvoice_StreamsPDF(t *testing.T) {
	userID := uuid.New()
	gen := &fakeGen{}
	r := gin.New()
	r.GET("/me/registrations/:id/invoice", func(c *gin.Context) {
		c.Set(auth.ContextIdentity, auth.Identity{UserID: userID})
	}, NewHandler(gen, nil).Registration)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me/registrations/"+uuid.NewString()+"/invoice", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-1.pdf")
	assert.Equal(t, models.ItemTypeWebinar, gen.kind)
	assert.Equal(t, userID, gen.userID)
}

func TestPurchaseInvoice_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"bad id", "/me/purchases/nope/invoice", nil, http.StatusBadRequest},
		{"not found", "/me/purchases/" + uuid.NewString() + "/invoice", orders.ErrNotFound, http.StatusNotFound},
		{"unpaid", "/me/purchases/" + uuid.NewString() + "/invoice", ErrNotInvoiceable, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me/purchases/:id/invoice", func(c *gin.Context) {
				c.Set(auth.ContextIdentity, auth.Identity{UserID: uuid.New()})
			}, NewHandler(&fakeGen{err: tt.err}, nil).Purchase)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAdminInvoice(t *testing.T) {
	gen := &fakeGen{}
	h := NewHandler(gen, nil)
	r := gin.New()
	r.GET("/admin/orders/:kind/:id/invoice", h.Admin)
	r.GET("/admin/orders/:kind/:id/invoice/link", h.AdminLink)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders/service/"+uuid.NewString()+"/invoice", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ItemTypeService, gen.kind)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders/course/"+uuid.NewString()+"/invoice", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders/webinar/"+uuid.NewString()+"/invoice/link", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://signed/x")
}
