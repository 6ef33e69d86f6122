package graphclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

const graphScope = "https://graph.microsoft.com/.default"

func tokenURL(directoryTenantID string) string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", directoryTenantID)
}

// secretTokenSource wraps golang.org/x/oauth2/clientcredentials for the
// client-secret auth method (spec §4.A "Secret-based auth").
type secretTokenSource struct {
	mu  sync.Mutex
	cfg *clientcredentials.Config
	src oauth2.TokenSource
}

func newSecretTokenSource(directoryTenantID, clientID, clientSecret string) *secretTokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL(directoryTenantID),
		Scopes:       []string{graphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return &secretTokenSource{cfg: cfg, src: cfg.TokenSource(context.Background())}
}

func (s *secretTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	src := s.src
	s.mu.Unlock()
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrAuth, err)
	}
	return tok.AccessToken, nil
}

// ForceRefresh drops the cached token by rebuilding the underlying oauth2
// token source, so the next Token call always round-trips to Entra ID.
func (s *secretTokenSource) ForceRefresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.src = s.cfg.TokenSource(context.Background())
	s.mu.Unlock()
	return s.Token(ctx)
}

// cachedEntry is one tenant's cached token plus its wall-clock expiry.
type cachedEntry struct {
	mu     sync.Mutex
	source TokenSource
	token  string
	expiry time.Time
}

// expiryLeeway is subtracted from the assumed token lifetime (ttl) so a caller
// never hands out a token that expires mid-request (spec §4.A "Caching").
const expiryLeeway = 2 * time.Minute

// cachingSource wraps any TokenSource with an in-memory, expiry-aware cache.
// Microsoft Graph tokens are opaque to us; we derive the cache window from
// the standard client-credentials grant's typical 1h lifetime and refresh
// proactively rather than parsing the token itself.
type cachingSource struct {
	entry *cachedEntry
	ttl   time.Duration
}

func newCachingSource(inner TokenSource, ttl time.Duration) *cachingSource {
	return &cachingSource{entry: &cachedEntry{source: inner}, ttl: ttl}
}

func (c *cachingSource) Token(ctx context.Context) (string, error) {
	c.entry.mu.Lock()
	defer c.entry.mu.Unlock()

	if c.entry.token != "" && time.Now().Before(c.entry.expiry) {
		return c.entry.token, nil
	}
	return c.refreshLocked(ctx)
}

func (c *cachingSource) ForceRefresh(ctx context.Context) (string, error) {
	c.entry.mu.Lock()
	defer c.entry.mu.Unlock()
	tok, err := c.entry.source.ForceRefresh(ctx)
	if err != nil {
		return "", err
	}
	c.entry.token = tok
	c.entry.expiry = time.Now().Add(c.ttl - expiryLeeway)
	return tok, nil
}

func (c *cachingSource) refreshLocked(ctx context.Context) (string, error) {
	tok, err := c.entry.source.Token(ctx)
	if err != nil {
		return "", err
	}
	c.entry.token = tok
	c.entry.expiry = time.Now().Add(c.ttl - expiryLeeway)
	return tok, nil
}
