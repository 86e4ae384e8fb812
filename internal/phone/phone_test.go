package phone

import "testing"

func TestValidE164(t *testing.T) {
	valid := []string{"+15551234567", "+491512345678", "+442071838750"}
	for _, p := range valid {
		if !ValidE164(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}

	invalid := []string{"", "15551234567", "+0123456789", "+1555", "+1555123456789012345", "+1555abc4567"}
	for _, p := range invalid {
		if ValidE164(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  +15551234567 \n"); got != "+15551234567" {
		t.Errorf("unexpected normalization result: %q", got)
	}
}

func TestMask(t *testing.T) {
	if got := Mask("+15551234567"); got != "+1********67" {
		t.Errorf("unexpected mask: %q", got)
	}
	if got := Mask("+15"); got != "****" {
		t.Errorf("short numbers should be fully masked, got %q", got)
	}
}
