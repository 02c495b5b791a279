package language

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/app/server.py", "python"},
		{"web/index.TSX", "typescript"},
		{"lib/util.JS", "javascript"},
		{"schema.sql", "sql"},
		{"deploy/Dockerfile", "dockerfile"},
		{"Makefile", "makefile"},
		{"config.yml", "yaml"},
		{"README.md", "markdown"},
		{"notes.txt", DefaultTag},
		{"LICENSE", DefaultTag},
		{"archive.tar.gz", DefaultTag},
		{"", DefaultTag},
		{"weird.name.with.dots.rs", "rust"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Detect(tt.path); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDetectDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := Detect("pkg/handler.go"); got != "go" {
			t.Fatalf("Detect returned %q on iteration %d", got, i)
		}
	}
}
