package graphclient

import (
	"context"
	"sync"
	"testing"

	"github.com/maes-platform/compliance-core/internal/store"
)

func testCreds() store.Credentials {
	return store.Credentials{Kind: store.CredentialSecret, ClientID: "client", ClientSecret: "secret"}
}

func TestFactoryCachesByCompositeKey(t *testing.T) {
	f := NewFactory("", "")

	c1, err := f.ForTenant(context.Background(), "tenant-a", "directory-1", testCreds())
	if err != nil {
		t.Fatalf("ForTenant: %v", err)
	}

	c2, err := f.ForTenant(context.Background(), "tenant-a", "directory-1", testCreds())
	if err != nil {
		t.Fatalf("ForTenant: %v", err)
	}
	if c1 != c2 {
		t.Fatal("expected the same cached client for an unchanged (tenantId, directoryTenantId) pair")
	}

	// A tenant rotating to a new directoryTenantId must not reuse the
	// client built against the old directory.
	c3, err := f.ForTenant(context.Background(), "tenant-a", "directory-2", testCreds())
	if err != nil {
		t.Fatalf("ForTenant: %v", err)
	}
	if c3 == c1 {
		t.Fatal("expected a distinct client after the tenant's directoryTenantId changed")
	}
}

func TestFactoryInvalidateIsPerDirectory(t *testing.T) {
	f := NewFactory("", "")

	c1, _ := f.ForTenant(context.Background(), "tenant-a", "directory-1", testCreds())
	f.Invalidate("tenant-a", "directory-1")

	c2, _ := f.ForTenant(context.Background(), "tenant-a", "directory-1", testCreds())
	if c1 == c2 {
		t.Fatal("expected Invalidate to force a rebuild for that (tenantId, directoryTenantId) pair")
	}
}

func TestFactoryConcurrentForTenantBuildsOnce(t *testing.T) {
	f := NewFactory("", "")

	const n = 20
	clients := make([]*Client, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			c, err := f.ForTenant(context.Background(), "tenant-a", "directory-1", testCreds())
			if err != nil {
				t.Errorf("ForTenant: %v", err)
				return
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if clients[i] != clients[0] {
			t.Fatal("expected every concurrent caller to observe the same singleflight-built client")
		}
	}
}
