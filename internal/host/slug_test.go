package host

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()

	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResolveSlugRules(t *testing.T) {
	tests := []struct {
		name    string
		dirs    []string
		query   string
		want    string
		wantErr error
	}{
		{name: "exact", dirs: []string{"widget", "widget-pro"}, query: "widget", want: "widget"},
		{name: "main suffix", dirs: []string{"widget-main"}, query: "widget", want: "widget-main"},
		{name: "case insensitive", dirs: []string{"Widget"}, query: "widget", want: "Widget"},
		{name: "prefix", dirs: []string{"widget-2.0"}, query: "widget", want: "widget-2.0"},
		{name: "not found", dirs: []string{"other"}, query: "widget", wantErr: ErrSlugNotFound},
		{name: "ambiguous prefix", dirs: []string{"widget-a", "widget-b"}, query: "widget", wantErr: ErrSlugAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			mkdirs(t, root, tt.dirs...)

			got, err := ResolveSlug(root, tt.query)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("ResolveSlug = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveSlugExactBeatsPrefix(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "widget", "widget-main", "widget-pro")

	got, err := ResolveSlug(root, "widget")
	if err != nil {
		t.Fatal(err)
	}

	if got != "widget" {
		t.Errorf("ResolveSlug = %q, want exact match to win", got)
	}
}
