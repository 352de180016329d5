package badger

import "testing"

// NewTestStore creates an in-memory run store that is closed when the test
// finishes.
func NewTestStore(t *testing.T) *RunStore {
	t.Helper()

	store, err := NewRunStore("", true)
	if err != nil {
		t.Fatalf("creating in-memory run store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing run store: %v", err)
		}
	})
	return store
}
