package relations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/metrics"
)

// LookupFunc resolves a target id to the summary returned on a successful
// add. It returns apperror NotFound when the target does not exist.
type LookupFunc[T any] func(ctx context.Context, targetID int64) (T, error)

// ValidateFunc rejects an (owner, target) pair before any store access.
type ValidateFunc func(ownerID, targetID int64) error

// Toggle is the add/remove flow shared by every relation kind. T is the
// summary projection of the target returned by Add.
type Toggle[T any] struct {
	kind     Kind
	repo     RelationRepository
	lookup   LookupFunc[T]
	validate ValidateFunc
}

// NewToggle creates a toggle for kind. validate may be nil.
func NewToggle[T any](kind Kind, repo RelationRepository, lookup LookupFunc[T], validate ValidateFunc) *Toggle[T] {
	return &Toggle[T]{kind: kind, repo: repo, lookup: lookup, validate: validate}
}

// Kind returns the relation kind this toggle manages.
func (t *Toggle[T]) Kind() Kind {
	return t.kind
}

// Add creates the (owner, target) relation and returns the target summary.
//
// Order of checks: validate, existing pair (Conflict), target lookup
// (NotFound), insert. The insert is guarded by the table's UNIQUE key, so
// when two adds race past the existence check exactly one succeeds and the
// other gets the same Conflict.
func (t *Toggle[T]) Add(ctx context.Context, ownerID, targetID int64) (T, error) {
	var zero T

	if err := t.check(ownerID, targetID); err != nil {
		t.record("add", err)
		return zero, err
	}

	exists, err := t.repo.Exists(ctx, t.kind, ownerID, targetID)
	if err != nil {
		return zero, t.fail("add", apperror.NewInternal(err))
	}
	if exists {
		return zero, t.fail("add", apperror.NewConflict(t.kind.ExistsMessage))
	}

	summary, err := t.lookup(ctx, targetID)
	if err != nil {
		return zero, t.fail("add", err)
	}

	if err := t.repo.Add(ctx, t.kind, ownerID, targetID); err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			err = apperror.NewInternal(err)
		}
		return zero, t.fail("add", err)
	}

	t.record("add", nil)
	slog.Debug("relation added",
		slog.String("kind", t.kind.Name),
		slog.Int64("owner_id", ownerID),
		slog.Int64("target_id", targetID),
	)
	return summary, nil
}

// Remove deletes the (owner, target) relation. Removing an absent pair is a
// Conflict. The delete itself decides presence, so a concurrent remove of
// the same pair leaves exactly one caller with success.
func (t *Toggle[T]) Remove(ctx context.Context, ownerID, targetID int64) error {
	if err := t.check(ownerID, targetID); err != nil {
		t.record("remove", err)
		return err
	}

	removed, err := t.repo.Remove(ctx, t.kind, ownerID, targetID)
	if err != nil {
		return t.fail("remove", apperror.NewInternal(err))
	}
	if !removed {
		return t.fail("remove", apperror.NewConflict(t.kind.MissingMessage))
	}

	t.record("remove", nil)
	return nil
}

// Flags returns which of targetIDs are related to ownerID. An anonymous
// owner (id 0) gets an empty map, i.e. false for every target.
func (t *Toggle[T]) Flags(ctx context.Context, ownerID int64, targetIDs []int64) (map[int64]bool, error) {
	if ownerID == 0 {
		return map[int64]bool{}, nil
	}
	flags, err := t.repo.ExistingTargets(ctx, t.kind, ownerID, targetIDs)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return flags, nil
}

func (t *Toggle[T]) check(ownerID, targetID int64) error {
	if ownerID == 0 {
		return apperror.NewUnauthorized("Authentication credentials were not provided.")
	}
	if t.validate != nil {
		return t.validate(ownerID, targetID)
	}
	return nil
}

func (t *Toggle[T]) fail(action string, err error) error {
	t.record(action, err)
	return err
}

func (t *Toggle[T]) record(action string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case apperror.Is(err, apperror.TypeConflict):
		outcome = "conflict"
	case apperror.Is(err, apperror.TypeNotFound):
		outcome = "not_found"
	case apperror.Is(err, apperror.TypeValidation), apperror.Is(err, apperror.TypeUnauthorized):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	metrics.RecordRelationToggle(t.kind.Name, action, outcome)
}
