package testsupport

import (
	"testing"

	"mediastore/internal/catalog"
	"mediastore/internal/config"
)

// MustOpenCatalog opens a catalog store under the test config's log directory
// and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
