package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'uq_favorites_user_recipe'"}

	if !IsDuplicateEntry(dup) {
		t.Error("expected 1062 to be a duplicate entry")
	}
	if !IsDuplicateEntry(fmt.Errorf("inserting: %w", dup)) {
		t.Error("expected wrapped 1062 to be a duplicate entry")
	}
	if IsDuplicateEntry(&mysql.MySQLError{Number: 1452}) {
		t.Error("1452 is not a duplicate entry")
	}
	if IsDuplicateEntry(errors.New("Duplicate entry")) {
		t.Error("plain errors must not match on message text")
	}
	if IsDuplicateEntry(nil) {
		t.Error("nil is not a duplicate entry")
	}
}

func TestIsMissingReference(t *testing.T) {
	if !IsMissingReference(&mysql.MySQLError{Number: 1452}) {
		t.Error("expected 1452 to be a missing reference")
	}
	if IsMissingReference(&mysql.MySQLError{Number: 1062}) {
		t.Error("1062 is not a missing reference")
	}
}

func TestDuplicateKey(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'lunch' for key 'uq_tags_slug'"}, "uq_tags_slug"},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'lunch' for key 'tags.uq_tags_slug'"}, "uq_tags_slug"},
		{fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'uq_tags_color'"}), "uq_tags_color"},
		{&mysql.MySQLError{Number: 1452, Message: "for key 'x'"}, ""},
		{errors.New("Duplicate entry 'x' for key 'y'"), ""},
	}
	for _, tc := range cases {
		if got := DuplicateKey(tc.err); got != tc.want {
			t.Errorf("DuplicateKey(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
