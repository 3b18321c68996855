package codanative

import "testing"

func TestCheckABI(t *testing.T) {
	tests := []struct {
		host, lib string
		ok        bool
	}{
		{"v1.0.0", "", true},
		{"v1.0.0", "v1.0.0", true},
		{"v1.2.0", "v1.1.5", true},
		{"v1.0.0", "v1.0.9", true},
		{"v1.0.0", "v1.1.0", false},
		{"v1.0.0", "v2.0.0", false},
		{"v2.0.0", "v1.0.0", false},
		{"v1.0.0", "1.0.0", false},
		{"v1.0.0", "garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"/"+tt.lib, func(t *testing.T) {
			err := checkABI(tt.host, tt.lib)
			if (err == nil) != tt.ok {
				t.Errorf("checkABI(%q, %q) = %v, want ok=%v", tt.host, tt.lib, err, tt.ok)
			}
		})
	}
}
