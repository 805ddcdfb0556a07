package notify

import "testing"

func TestForType(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		typ     string
		want    Notifier
	}{
		{"disabled", false, "desktop", Nop{}},
		{"desktop", true, "desktop", Desktop{}},
		{"log", true, "log", Log{}},
		{"none", true, "none", Nop{}},
		{"unknown", true, "bogus", Nop{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForType(tt.enabled, tt.typ); got != tt.want {
				t.Errorf("ForType(%v, %q) = %T, want %T", tt.enabled, tt.typ, got, tt.want)
			}
		})
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	n := Nop{}
	n.ListeningChanged(true)
	n.ListeningChanged(false)
	n.Error("boom")
	n.Submitted()
	n.SubmitFailed("boom")
}
