package host

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractVersionConventions(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "header colon",
			data: "<?php\n/*\nPlugin Name: Widget\nVersion: 1.2.3\n*/\n",
			want: "1.2.3",
		},
		{
			name: "doc at-version",
			data: "/**\n * @package widget\n * @version 2.0.1\n */\n",
			want: "2.0.1",
		},
		{
			name: "define constant",
			data: "<?php\ndefine('WIDGET_VERSION', '3.4.5');\n",
			want: "3.4.5",
		},
		{
			name: "define double quotes",
			data: `define("WIDGET_PLUGIN_VERSION", "0.9.0");`,
			want: "0.9.0",
		},
		{
			name: "comment prefix",
			data: "// Version: 4.5.6\npackage main\n",
			want: "4.5.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVersion([]byte(tt.data))
			if !ok {
				t.Fatalf("no version found in %q", tt.data)
			}

			if got != tt.want {
				t.Errorf("ExtractVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractVersionAbsent(t *testing.T) {
	if _, ok := ExtractVersion([]byte("package main\n\nfunc main() {}\n")); ok {
		t.Error("expected no version marker")
	}
}

func TestParseMetadata(t *testing.T) {
	data := []byte("/*\nPlugin Name: Widget Deluxe\nDescription: Does widget things.\nVersion: 1.0.0\n*/\n")

	meta, ok := ParseMetadata(data)
	if !ok {
		t.Fatal("expected a parseable header")
	}

	if meta.Name != "Widget Deluxe" {
		t.Errorf("Name = %q", meta.Name)
	}

	if meta.Version != "1.0.0" {
		t.Errorf("Version = %q", meta.Version)
	}

	if meta.Description != "Does widget things." {
		t.Errorf("Description = %q", meta.Description)
	}
}

func TestFindPluginFilePrefersDirectoryName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "widget")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	header := []byte("/*\nVersion: 1.0.0\n*/\n")

	if err := os.WriteFile(filepath.Join(dir, "aaa.php"), header, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "widget.php"), header, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := FindPluginFile(dir)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(got) != "widget.php" {
		t.Errorf("FindPluginFile = %q, want widget.php", got)
	}
}

func TestFindPluginFileNoHeader(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "readme.php"), []byte("<?php // nothing"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := FindPluginFile(dir); err == nil {
		t.Error("expected an error when no file carries a header")
	}
}
