package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/response"
	"github.com/aura-webinar/storefront/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uuid.UUID]*models.User{}} }

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if _, err := f.GetByEmail(ctx, u.Email); err == nil {
		return nil, ErrEmailTaken
	}
	cp := *u
	cp.ID = uuid.New()
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, fullName, phone *string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if phone != nil {
		u.Phone = *phone
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := f.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Password = hash
	return nil
}

type fakeMailer struct{ sent []queue.EmailPayload }

func (m *fakeMailer) Dispatch(_ context.Context, p queue.EmailPayload) error {
	m.sent = append(m.sent, p)
	return nil
}

type authFixture struct {
	users  *fakeUsers
	mailer *fakeMailer
	jwt    *JWTService
	router *gin.Engine
}

func newAuthFixture() *authFixture {
	f := &authFixture{users: newFakeUsers(), mailer: &fakeMailer{}, jwt: NewJWTService("secret", 24)}
	h := NewHandler(f.users, f.jwt, f.mailer, "https://app.example.com/reset-password", false, nil)
	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/password/forgot", h.ForgotPassword)
	r.POST("/auth/password/reset", h.ResetPassword)
	withIdentity := func(c *gin.Context) {
		if claims, err := f.jwt.Validate(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")); err == nil {
			c.Set(ContextIdentity, claims.Identity())
		}
	}
	r.GET("/me", withIdentity, h.Me)
	r.PATCH("/me", withIdentity, h.UpdateMe)
	f.router = r
	return f
}

func (f *authFixture) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var body struct {
		Success bool          `json:"success"`
		Data    TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	return body.Data
}

func TestSignupLoginMe(t *testing.T) {
	f := newAuthFixture()

	w := f.do(http.MethodPost, "/auth/signup", gin.H{"email": "Asha@Example.com", "password": "s3cretpass", "full_name": "Asha"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	signup := decodeToken(t, w)
	assert.Equal(t, "asha@example.com", signup.User.Email)
	assert.Equal(t, models.RoleUser, signup.User.Role)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=")

	w = f.do(http.MethodPost, "/auth/signup", gin.H{"email": "asha@example.com", "password": "otherpass", "full_name": "Dup"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/auth/login", gin.H{"email": "asha@example.com", "password": "wrongpass"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/auth/login", gin.H{"email": "asha@example.com", "password": "s3cretpass"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeToken(t, w)

	w = f.do(http.MethodGet, "/me", nil, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asha@example.com")

	w = f.do(http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPatch, "/me", gin.H{"full_name": "Asha K", "phone": "+91 99999"}, login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asha K", f.users.byID[login.User.ID].FullName)
}

func TestSignup_Validation(t *testing.T) {
	f := newAuthFixture()
	w := f.do(http.MethodPost, "/auth/signup", gin.H{"email": "bad", "password": "short", "full_name": ""}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture()
	hash, err := utils.HashPassword("oldpassword")
	require.NoError(t, err)
	user, err := f.users.Create(context.Background(), &models.User{Email: "b@example.com", Password: hash, FullName: "B", Role: models.RoleUser})
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/auth/password/forgot", gin.H{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.mailer.sent)

	w = f.do(http.MethodPost, "/auth/password/forgot", gin.H{"email": "b@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, models.EmailTypePasswordReset, f.mailer.sent[0].EmailType)

	link := f.mailer.sent[0].BodyText[strings.Index(f.mailer.sent[0].BodyText, "https://"):]
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	w = f.do(http.MethodPost, "/auth/password/reset", gin.H{"token": token, "password": "newpassword"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, utils.CheckPassword("newpassword", f.users.byID[user.ID].Password))

	// the link is single use: the stamp no longer matches the new hash
	w = f.do(http.MethodPost, "/auth/password/reset", gin.H{"token": token, "password": "anotherpass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "reset link is invalid or has expired", body.Error)
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newAuthFixture()
	w := f.do(http.MethodPost, "/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}
