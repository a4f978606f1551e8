package logger

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"loud", true},
	}
	for _, tt := range tests {
		log, err := New("food-webapp", tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			continue
		}
		if log != nil {
			_ = log.Sync()
		}
	}
}
