package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPreviewURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
		{"example.local:80", "http://example.local:80/"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := previewURL(tt.addr); got != tt.want {
				t.Errorf("previewURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestFindWebDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if got := findWebDir(); got != "" {
		t.Errorf("findWebDir() = %q, want empty", got)
	}

	if err := os.Mkdir(filepath.Join(dir, "web"), 0755); err != nil {
		t.Fatal(err)
	}
	got := findWebDir()
	want, _ := filepath.Abs("web")
	if got != want {
		t.Errorf("findWebDir() = %q, want %q", got, want)
	}
}
