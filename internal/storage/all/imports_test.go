package all

import (
	"testing"

	"movieload/internal/storage"
)

func TestBuiltinKindsRegistered(t *testing.T) {
	t.Parallel()

	kinds := map[string]bool{}
	for _, k := range storage.ListKinds() {
		kinds[k] = true
	}
	for _, want := range []string{"postgres", "sqlite"} {
		if !kinds[want] {
			t.Fatalf("kind %q not registered; have %v", want, storage.ListKinds())
		}
	}
}
