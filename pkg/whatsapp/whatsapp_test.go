package whatsapp

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+62 812-3456-789": "628123456789",
		"6281234":          "6281234",
		"":                 "",
	}
	for in, want := range tests {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnabled(t *testing.T) {
	for _, v := range []string{"true", "1", "YES"} {
		t.Setenv("WHATSAPP_ENABLED", v)
		if !Enabled() {
			t.Errorf("Enabled() = false for %q", v)
		}
	}
	t.Setenv("WHATSAPP_ENABLED", "")
	if Enabled() {
		t.Error("Enabled() = true for empty value")
	}
}
