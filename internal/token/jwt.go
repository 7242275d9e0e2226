package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/feedback-server/internal/model"
)

// ErrInvalidToken is returned for any token that fails verification: bad
// signature, malformed payload, unknown key id, wrong type or elapsed expiry.
var ErrInvalidToken = errors.New("invalid token")

var _ model.TokenManager = (*JWT)(nil)

// Claims represents JWT claims with token type and user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"typ"`
}

// Options configures a JWT manager. PreviousKeys holds retired key ids and
// secrets that are accepted for verification but never used for signing.
type Options struct {
	KeyID        string
	Secret       string
	PreviousKeys map[string]string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// JWT implements TokenManager backed by symmetric HMAC keys addressed by kid.
type JWT struct {
	keyID      string
	signKey    []byte
	verifyKeys map[string][]byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
	headerKeyID = "kid"
)

// NewJWT creates a new JWT token manager.
func NewJWT(opts Options) (*JWT, error) {
	if opts.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if opts.KeyID == "" {
		return nil, errors.New("jwt key id is empty")
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, errors.New("jwt token lifetimes must be positive")
	}

	verifyKeys := make(map[string][]byte, len(opts.PreviousKeys)+1)
	for kid, secret := range opts.PreviousKeys {
		if kid == "" || secret == "" {
			return nil, errors.New("previous keys contain an empty kid or secret")
		}
		verifyKeys[kid] = []byte(secret)
	}
	verifyKeys[opts.KeyID] = []byte(opts.Secret)

	return &JWT{
		keyID:      opts.KeyID,
		signKey:    []byte(opts.Secret),
		verifyKeys: verifyKeys,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
	}, nil
}

// Issue signs an access token for userID valid for ttl.
func (j *JWT) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	return j.sign(userID, typeAccess, "", ttl)
}

// Verify checks token and returns the user it was issued to.
func (j *JWT) Verify(tokenString string) (uuid.UUID, error) {
	claims, err := j.parse(tokenString, typeAccess)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

// GenerateAccessToken creates an access token with the configured lifetime.
func (j *JWT) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return j.Issue(userID, j.accessTTL)
}

// GenerateRefreshToken creates a long-lived refresh token and returns its JTI.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID) (string, string, error) {
	jti := uuid.NewString()
	token, err := j.sign(userID, typeRefresh, jti, j.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

// ParseAccessToken validates and extracts the user ID from an access token.
func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	return j.Verify(tokenString)
}

// ParseRefreshToken validates and extracts the user ID and JTI from a refresh token.
func (j *JWT) ParseRefreshToken(tokenString string) (uuid.UUID, string, error) {
	claims, err := j.parse(tokenString, typeRefresh)
	if err != nil {
		return uuid.Nil, "", err
	}
	if claims.ID == "" {
		return uuid.Nil, "", fmt.Errorf("%w: refresh token without jti", ErrInvalidToken)
	}
	return claims.UserID, claims.ID, nil
}

// RefreshTTL reports the refresh token lifetime.
func (j *JWT) RefreshTTL() time.Duration {
	return j.refreshTTL
}

func (j *JWT) sign(userID uuid.UUID, typ, jti string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: typ,
	})
	token.Header[headerKeyID] = j.keyID

	tokenString, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return tokenString, nil
}

func (j *JWT) parse(tokenString, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%w: token type mismatch: %s", ErrInvalidToken, claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims, nil
}

func (j *JWT) keyFunc(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header[headerKeyID].(string)
	if kid == "" {
		return nil, errors.New("missing kid")
	}
	key, ok := j.verifyKeys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return key, nil
}
