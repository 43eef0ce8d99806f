package auth

import "testing"

func TestStateStoreIssueConsume(t *testing.T) {
	store := NewStateStore()

	state, err := store.Issue()
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if len(state) != 32 {
		t.Errorf("state length = %d, want 32 hex chars", len(state))
	}

	if !store.Consume(state) {
		t.Error("first Consume() = false, want true")
	}
	if store.Consume(state) {
		t.Error("second Consume() = true, want false (one-time use)")
	}
}

func TestStateStoreUnknownState(t *testing.T) {
	store := NewStateStore()
	if store.Consume("never-issued") {
		t.Error("Consume of unknown state = true, want false")
	}
}

func TestStateStoreDistinctStates(t *testing.T) {
	store := NewStateStore()
	a, _ := store.Issue()
	b, _ := store.Issue()
	if a == b {
		t.Error("two issued states are identical")
	}
	if !store.Consume(a) || !store.Consume(b) {
		t.Error("both states should consume independently")
	}
}
