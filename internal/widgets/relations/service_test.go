package relations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/foodgram/foodgram/internal/apperror"
)

// --- In-memory repository ---

// memRelationRepo implements RelationRepository over a map. Add enforces the
// unique pair the way the database constraint does.
type memRelationRepo struct {
	mu      sync.Mutex
	pairs   map[string]bool
	addHook func() // runs between Exists and Add, lets tests widen races
}

func newMemRepo() *memRelationRepo {
	return &memRelationRepo{pairs: make(map[string]bool)}
}

func pairKey(kind Kind, owner, target int64) string {
	return fmt.Sprintf("%s:%d:%d", kind.Table, owner, target)
}

func (m *memRelationRepo) Exists(_ context.Context, kind Kind, owner, target int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairs[pairKey(kind, owner, target)], nil
}

func (m *memRelationRepo) Add(_ context.Context, kind Kind, owner, target int64) error {
	if m.addHook != nil {
		m.addHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(kind, owner, target)
	if m.pairs[key] {
		return apperror.NewConflict(kind.ExistsMessage)
	}
	m.pairs[key] = true
	return nil
}

func (m *memRelationRepo) Remove(_ context.Context, kind Kind, owner, target int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(kind, owner, target)
	if !m.pairs[key] {
		return false, nil
	}
	delete(m.pairs, key)
	return true, nil
}

func (m *memRelationRepo) ExistingTargets(_ context.Context, kind Kind, owner int64, targets []int64) (map[int64]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[int64]bool)
	for _, id := range targets {
		if m.pairs[pairKey(kind, owner, id)] {
			found[id] = true
		}
	}
	return found, nil
}

func (m *memRelationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs)
}

// --- Test Helpers ---

type recipeSummary struct {
	ID   int64
	Name string
}

func recipeLookup(existing ...int64) LookupFunc[recipeSummary] {
	return func(_ context.Context, id int64) (recipeSummary, error) {
		for _, e := range existing {
			if e == id {
				return recipeSummary{ID: id, Name: fmt.Sprintf("recipe %d", id)}, nil
			}
		}
		return recipeSummary{}, apperror.NewNotFound("Not found.")
	}
}

func noSelf(owner, target int64) error {
	if owner == target {
		return apperror.NewFieldError("errors", "You cannot subscribe to yourself.")
	}
	return nil
}

func assertAppErrorType(t *testing.T, err error, errType string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", errType)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Type != errType {
		t.Errorf("expected type %s, got %s (message: %s)", errType, appErr.Type, appErr.Message)
	}
}

// --- Tests ---

func TestToggle_FavoriteLifecycle(t *testing.T) {
	repo := newMemRepo()
	fav := NewToggle(Favorite, repo, recipeLookup(7), nil)
	ctx := context.Background()

	summary, err := fav.Add(ctx, 1, 7)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if summary.ID != 7 {
		t.Errorf("expected summary of recipe 7, got %+v", summary)
	}

	flags, err := fav.Flags(ctx, 1, []int64{7, 8})
	if err != nil {
		t.Fatal(err)
	}
	if !flags[7] || flags[8] {
		t.Errorf("unexpected flags after add: %v", flags)
	}

	_, err = fav.Add(ctx, 1, 7)
	assertAppErrorType(t, err, apperror.TypeConflict)

	if err := fav.Remove(ctx, 1, 7); err != nil {
		t.Fatalf("remove: %v", err)
	}

	err = fav.Remove(ctx, 1, 7)
	assertAppErrorType(t, err, apperror.TypeConflict)
}

func TestToggle_AddMissingTarget(t *testing.T) {
	repo := newMemRepo()
	cart := NewToggle(ShoppingCart, repo, recipeLookup(), nil)

	_, err := cart.Add(context.Background(), 1, 99)
	assertAppErrorType(t, err, apperror.TypeNotFound)
	if repo.count() != 0 {
		t.Error("no row may be written for a missing target")
	}
}

func TestToggle_ConflictCheckedBeforeLookup(t *testing.T) {
	repo := newMemRepo()
	repo.pairs[pairKey(Favorite, 1, 5)] = true

	lookups := 0
	lookup := func(context.Context, int64) (recipeSummary, error) {
		lookups++
		return recipeSummary{}, nil
	}
	fav := NewToggle(Favorite, repo, lookup, nil)

	_, err := fav.Add(context.Background(), 1, 5)
	assertAppErrorType(t, err, apperror.TypeConflict)
	if lookups != 0 {
		t.Errorf("lookup should not run for an existing pair, ran %d times", lookups)
	}
}

func TestToggle_KindsAreIndependent(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	fav := NewToggle(Favorite, repo, recipeLookup(3), nil)
	cart := NewToggle(ShoppingCart, repo, recipeLookup(3), nil)

	if _, err := fav.Add(ctx, 1, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := cart.Add(ctx, 1, 3); err != nil {
		t.Fatalf("cart add must not collide with favorites: %v", err)
	}

	flags, _ := cart.Flags(ctx, 2, []int64{3})
	if flags[3] {
		t.Error("another user's cart must not leak")
	}
}

func TestToggle_SelfSubscriptionRejectedFirst(t *testing.T) {
	repo := newMemRepo()
	// Even an existing self pair must report the validation failure, not a conflict.
	repo.pairs[pairKey(Subscription, 4, 4)] = true
	sub := NewToggle(Subscription, repo, recipeLookup(4), noSelf)

	_, err := sub.Add(context.Background(), 4, 4)
	assertAppErrorType(t, err, apperror.TypeValidation)
}

func TestToggle_AnonymousOwner(t *testing.T) {
	fav := NewToggle(Favorite, newMemRepo(), recipeLookup(1), nil)
	ctx := context.Background()

	_, err := fav.Add(ctx, 0, 1)
	assertAppErrorType(t, err, apperror.TypeUnauthorized)

	flags, err := fav.Flags(ctx, 0, []int64{1})
	if err != nil {
		t.Fatalf("anonymous flags must not error: %v", err)
	}
	if flags[1] {
		t.Error("anonymous viewer must see false")
	}
}

func TestToggle_ConcurrentAddsYieldOneRow(t *testing.T) {
	repo := newMemRepo()

	// Hold every Add until all goroutines have passed the Exists check so
	// the unique constraint is what decides the winner.
	const workers = 8
	var arrived sync.WaitGroup
	arrived.Add(workers)
	release := make(chan struct{})
	repo.addHook = func() {
		arrived.Done()
		<-release
	}

	fav := NewToggle(Favorite, repo, recipeLookup(42), nil)

	var successes, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fav.Add(context.Background(), 1, 42)
			switch {
			case err == nil:
				successes.Add(1)
			case apperror.Is(err, apperror.TypeConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	arrived.Wait()
	close(release)
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("expected exactly one success, got %d", successes.Load())
	}
	if conflicts.Load() != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts.Load())
	}
	if repo.count() != 1 {
		t.Errorf("expected one persisted row, got %d", repo.count())
	}
}
