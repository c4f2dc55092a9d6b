package auth

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Token purposes. A reset token can never be used as a session and vice versa.
const (
	PurposeSession       = "session"
	PurposePasswordReset = "password_reset"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = 30 * time.Minute

// Claims holds JWT claims including user ID and role.
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Purpose string    `json:"purpose"`
	// Stamp ties a reset token to the password hash it was issued against,
	// so the link stops working once the password changes.
	Stamp string `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller, passed explicitly to handlers.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// ContextIdentity is the gin context key holding the caller Identity.
const ContextIdentity = "identity"

// FromContext returns the caller identity set by the JWT middleware.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// IsAdmin reports whether the caller has the admin role.
func (i Identity) IsAdmin() bool { return i.Role == "admin" }

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
	now         func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
		now:         time.Now,
	}
}

// SessionTTL is the lifetime of session tokens.
func (s *JWTService) SessionTTL() time.Duration {
	return time.Duration(s.expireHours) * time.Hour
}

// Generate creates a new session JWT for the user.
func (s *JWTService) Generate(userID uuid.UUID, email, role string) (string, error) {
	return s.sign(Claims{UserID: userID, Email: email, Role: role, Purpose: PurposeSession}, s.SessionTTL())
}

// GenerateReset creates a short-lived password reset token bound to the
// user's current password hash.
func (s *JWTService) GenerateReset(userID uuid.UUID, email, passwordHash string) (string, error) {
	return s.sign(Claims{UserID: userID, Email: email, Purpose: PurposePasswordReset, Stamp: Stamp(passwordHash)}, ResetTokenTTL)
}

func (s *JWTService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a session JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeSession {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateReset parses a password reset JWT.
func (s *JWTService) ValidateReset(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Identity converts session claims into the caller identity.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// Stamp fingerprints a password hash. bcrypt hashes are salted, so the tail
// changes on every password change.
func Stamp(passwordHash string) string {
	if len(passwordHash) <= 12 {
		return passwordHash
	}
	return passwordHash[len(passwordHash)-12:]
}
