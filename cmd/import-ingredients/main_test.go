package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_RejectsBadArguments(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "usage"},
		{"too many", []string{"a.csv", "b.csv"}, "usage"},
		{"not csv", []string{"ingredients.json"}, "not a .csv file"},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.csv")}, "opening"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := run(tc.args)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("run(%v) = %v, want error containing %q", tc.args, err, tc.want)
			}
		})
	}
}
