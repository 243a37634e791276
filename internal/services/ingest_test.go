package services

import (
	"testing"

	"github.com/carewise/carehub/internal/config"
)

func TestIngestVerifyToken(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		presented  string
		want       bool
	}{
		{"match", "secret-token", "secret-token", true},
		{"mismatch", "secret-token", "wrong", false},
		{"empty presented", "secret-token", "", false},
		{"unconfigured always rejects", "", "", false},
		{"unconfigured rejects any token", "", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewIngestService(nil, &config.IngestConfig{Token: tt.configured}, nil)
			if got := svc.VerifyToken(tt.presented); got != tt.want {
				t.Errorf("VerifyToken(%q) = %v, expected %v", tt.presented, got, tt.want)
			}
		})
	}
}
