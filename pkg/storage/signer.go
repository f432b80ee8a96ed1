// Package storage issues short-lived signed download URLs over the object
// store. The file bytes never flow through this service; clients follow the
// signed URL to the storage gateway, which verifies the token.
package storage

import (
	"fmt"
	"time"

	"docvault-be/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
)

// SignedLink is an issued download URL with its expiry.
type SignedLink struct {
	URL       string
	ExpiresAt time.Time
}

// URLSigner mints HMAC-signed download URLs. Links are cached per document
// for slightly less than their lifetime, so repeated asks inside one
// conversation reuse the same URL.
type URLSigner struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	cache   *gocache.Cache
	now     func() time.Time
}

type Option func(*URLSigner)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *URLSigner) {
		s.now = now
	}
}

func NewURLSigner(baseURL, secret string, ttl time.Duration, opts ...Option) *URLSigner {
	cacheTTL := ttl - ttl/10
	s := &URLSigner{
		baseURL: baseURL,
		secret:  []byte(secret),
		ttl:     ttl,
		cache:   gocache.New(cacheTTL, 10*time.Minute),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignedURL returns a download link for the document.
func (s *URLSigner) SignedURL(doc *entity.Document) (*SignedLink, error) {
	if cached, found := s.cache.Get(doc.Id.String()); found {
		return cached.(*SignedLink), nil
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": doc.Id.String(),
		"org": doc.OrganizationId.String(),
		"key": doc.StorageKey,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download token: %w", err)
	}

	link := &SignedLink{
		URL:       fmt.Sprintf("%s/files/%s?token=%s", s.baseURL, doc.Id, signed),
		ExpiresAt: expiresAt,
	}
	s.cache.Set(doc.Id.String(), link, gocache.DefaultExpiration)
	return link, nil
}

// Verify checks a download token and returns the storage key it grants.
func (s *URLSigner) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid download token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid download token claims")
	}
	key, _ := claims["key"].(string)
	if key == "" {
		return "", fmt.Errorf("download token has no storage key")
	}
	return key, nil
}

// Invalidate drops a cached link, used when a document row changes.
func (s *URLSigner) Invalidate(documentID string) {
	s.cache.Delete(documentID)
}
