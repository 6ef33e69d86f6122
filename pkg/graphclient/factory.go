package graphclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maes-platform/compliance-core/internal/apperr"
	"github.com/maes-platform/compliance-core/internal/store"
)

// defaultTokenTTL approximates the client-credentials grant's standard 1h
// lifetime; ForceRefresh still short-circuits this on an observed 401.
const defaultTokenTTL = time.Hour

// cacheEntry holds at most one built Client behind its own mutex, so two
// concurrent callers racing to build the same tenant's client block on each
// other (singleflight-style) instead of both paying the token-acquisition
// cost (spec §9 "cache keyed by (tenantId, directoryTenantId)").
type cacheEntry struct {
	mu     sync.Mutex
	client *Client
}

// Factory builds and caches per-tenant Graph clients (spec §4.A "Factory").
// A tenant's credentials rarely change between assessments, so the factory
// keeps one cached client per (tenantId, directoryTenantId) pair rather
// than rebuilding a token source on every call. Keying on the pair, not
// just tenantId, means a tenant that rotates to a new directoryTenantId
// (a re-pointed app registration) gets a fresh client instead of silently
// reusing one built against the old directory.
type Factory struct {
	defaultKeyPath  string
	defaultCertPath string

	clients sync.Map // cacheKey -> *cacheEntry
}

// NewFactory builds a Factory. defaultKeyPath/defaultCertPath are used for
// tenants whose CertReference is empty (spec's "the core never persists
// the certificate body; it references a file path or key-store id").
func NewFactory(defaultKeyPath, defaultCertPath string) *Factory {
	return &Factory{
		defaultKeyPath:  defaultKeyPath,
		defaultCertPath: defaultCertPath,
	}
}

func cacheKey(tenantID, directoryTenantID string) string {
	return tenantID + "/" + directoryTenantID
}

// ForTenant returns a cached or newly built Client for the tenant's
// directory id and credentials.
func (f *Factory) ForTenant(ctx context.Context, tenantID string, directoryTenantID string, creds store.Credentials) (*Client, error) {
	key := cacheKey(tenantID, directoryTenantID)
	entryIface, _ := f.clients.LoadOrStore(key, &cacheEntry{})
	entry := entryIface.(*cacheEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.client != nil {
		return entry.client, nil
	}

	tokens, err := f.buildTokenSource(directoryTenantID, creds)
	if err != nil {
		return nil, err
	}

	entry.client = newClient(directoryTenantID, newCachingSource(tokens, defaultTokenTTL))
	return entry.client, nil
}

// Invalidate drops a tenant's cached client, forcing a full rebuild
// (credentials changed, or a caller wants to retry from a clean slate).
func (f *Factory) Invalidate(tenantID, directoryTenantID string) {
	f.clients.Delete(cacheKey(tenantID, directoryTenantID))
}

func (f *Factory) buildTokenSource(directoryTenantID string, creds store.Credentials) (TokenSource, error) {
	switch creds.Kind {
	case store.CredentialSecret:
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("%w: secret credentials missing clientId or clientSecret", apperr.ErrCertInvalid)
		}
		return newSecretTokenSource(directoryTenantID, creds.ClientID, creds.ClientSecret), nil

	case store.CredentialCert:
		keyPath, certPath := f.resolveCertPaths(creds.CertReference)
		material, err := loadCertMaterial(keyPath, certPath)
		if err != nil {
			return nil, err
		}
		return newCertTokenSource(directoryTenantID, creds.ClientID, material), nil

	default:
		return nil, fmt.Errorf("%w: unknown credential kind %q", apperr.ErrCertInvalid, creds.Kind)
	}
}

// resolveCertPaths turns a tenant's CertReference into (keyPath, certPath).
// An empty reference falls back to the factory's configured default
// key/cert pair (single-tenant deployments, or a shared app registration).
// A non-empty reference is "<keyPath>|<certPath>", letting a tenant supply
// its own certificate material without the core ever storing the bytes.
func (f *Factory) resolveCertPaths(ref string) (string, string) {
	if ref == "" {
		return f.defaultKeyPath, f.defaultCertPath
	}
	parts := strings.SplitN(ref, "|", 2)
	if len(parts) != 2 {
		return f.defaultKeyPath, f.defaultCertPath
	}
	return parts[0], parts[1]
}
