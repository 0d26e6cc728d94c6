package classify

import "testing"

func TestAnalyze(t *testing.T) {
	tests := []struct {
		message   string
		category  Category
		retryable bool
	}{
		{"permission denied: /etc/shadow", CategoryPermission, false},
		{"Operation not permitted", CategoryPermission, false},
		{"connection refused: localhost:5432", CategoryNetwork, true},
		{"dial tcp: no such host", CategoryNetwork, true},
		{"request timed out after 30s", CategoryTimeout, true},
		{"context deadline exceeded", CategoryTimeout, true},
		{"open config.toml: no such file or directory", CategoryNotFound, false},
		{"syntax error near line 42", CategorySyntax, false},
		{"compilation failed: missing import", CategorySyntax, false},
		{"merge conflict in src/main.go", CategoryConflict, true},
		{"write /tmp/x: no space left on device", CategoryResource, true},
		{"something inexplicable happened", CategoryUnknown, true},
		{"", CategoryUnknown, true},
	}

	for _, tt := range tests {
		got := Analyze(tt.message)
		if got.Category != tt.category {
			t.Errorf("Analyze(%q).Category = %v, want %v", tt.message, got.Category, tt.category)
		}
		if got.Retryable != tt.retryable {
			t.Errorf("Analyze(%q).Retryable = %v, want %v", tt.message, got.Retryable, tt.retryable)
		}
		if got.Hint == "" {
			t.Errorf("Analyze(%q) has no hint", tt.message)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	// "permission denied ... not found" hits the permission rule first.
	got := Analyze("permission denied: binary not found")
	if got.Category != CategoryPermission {
		t.Errorf("category = %v", got.Category)
	}
}
