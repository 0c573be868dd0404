package env

import "testing"

func TestFirstSkipsBlankValues(t *testing.T) {
	t.Setenv("VIDORA_TEST_A", "  ")
	t.Setenv("VIDORA_TEST_B", " console ")
	if got := First("VIDORA_TEST_MISSING", "VIDORA_TEST_A", "VIDORA_TEST_B"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestOrFallback(t *testing.T) {
	t.Setenv("VIDORA_TEST_A", "")
	if got := Or("json", "VIDORA_TEST_A"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
