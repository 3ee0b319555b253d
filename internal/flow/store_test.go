package flow

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreReplaceAndClear(t *testing.T) {
	store := NewMemoryStore()

	if _, ok := store.Get(1); ok {
		t.Fatal("empty store should report no state")
	}

	store.Set(1, State{Step: StepAwaitingCategory})
	st, ok := store.Get(1)
	if !ok || st.Step != StepAwaitingCategory {
		t.Fatalf("state = %+v", st)
	}
	if st.UserID != 1 {
		t.Fatalf("user id = %d, want 1", st.UserID)
	}
	if st.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be stamped on set")
	}

	// Set replaces the whole state, no partial merge.
	desc := "lunch"
	store.Set(1, State{Step: StepAwaitingConfirmation, Pending: Pending{CategoryID: 3, Amount: 9, Description: &desc}})
	st, _ = store.Get(1)
	if st.Step != StepAwaitingConfirmation || st.Pending.CategoryID != 3 {
		t.Fatalf("state = %+v", st)
	}
	store.Set(1, State{Step: StepAwaitingCategory})
	st, _ = store.Get(1)
	if st.Pending.CategoryID != 0 || st.Pending.Description != nil {
		t.Fatalf("pending leaked across replace: %+v", st.Pending)
	}

	store.Clear(1)
	if _, ok := store.Get(1); ok {
		t.Fatal("state should be gone after clear")
	}
}

func TestMemoryStoreIsolatesUsers(t *testing.T) {
	store := NewMemoryStore()
	store.Set(1, State{Step: StepAwaitingAmount})
	store.Set(2, State{Step: StepAwaitingConfirmation})

	store.Clear(1)
	if _, ok := store.Get(1); ok {
		t.Fatal("user 1 should be cleared")
	}
	if st, ok := store.Get(2); !ok || st.Step != StepAwaitingConfirmation {
		t.Fatalf("user 2 state = %+v", st)
	}
}

func TestStaleUsers(t *testing.T) {
	store := NewMemoryStore()
	store.Set(1, State{Step: StepAwaitingAmount, UpdatedAt: time.Now().Add(-2 * time.Hour)})
	store.Set(2, State{Step: StepAwaitingAmount, UpdatedAt: time.Now()})

	stale := store.StaleUsers(time.Now().Add(-time.Hour))
	if len(stale) != 1 || stale[0] != 1 {
		t.Fatalf("stale = %v, want [1]", stale)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for u := int64(0); u < 8; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				store.Set(userID, State{Step: StepAwaitingAmount, Pending: Pending{Amount: float64(i)}})
				if st, ok := store.Get(userID); ok && st.Step != StepAwaitingAmount {
					t.Errorf("torn read: %+v", st)
					return
				}
			}
			store.Clear(userID)
		}(u)
	}
	wg.Wait()
}

func TestSweepStaleClearsOnlyIdleFlows(t *testing.T) {
	m, _, store := newTestMachine()
	store.Set(1, State{Step: StepAwaitingAmount, UpdatedAt: time.Now().Add(-2 * time.Hour)})
	store.Set(2, State{Step: StepAwaitingConfirmation, UpdatedAt: time.Now()})

	if swept := m.SweepStale(time.Hour); swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}
	if m.InProgress(1) {
		t.Fatal("idle flow should be swept")
	}
	if !m.InProgress(2) {
		t.Fatal("active flow must survive the sweep")
	}
}

func TestCategoryTokenRoundTrip(t *testing.T) {
	id, ok := ParseCategoryToken(CategoryToken(42))
	if !ok || id != 42 {
		t.Fatalf("round trip = %d, %v", id, ok)
	}
	if _, ok := ParseCategoryToken("confirm"); ok {
		t.Fatal("foreign token must not parse")
	}
	if _, ok := ParseCategoryToken("category:abc"); ok {
		t.Fatal("non-numeric id must not parse")
	}
}
