package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignature_Committer(t *testing.T) {
	when := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		sig       Signature
		wantName  string
		wantEmail string
	}{
		{
			name:      "same as author",
			sig:       Signature{Name: "Dev", Email: "dev@example.com", When: when},
			wantName:  "Dev",
			wantEmail: "dev@example.com",
		},
		{
			name: "separate committer",
			sig: Signature{
				Name: "Dev", Email: "dev@example.com", When: when,
				CommitterName: "CI", CommitterEmail: "ci@example.com",
			},
			wantName:  "CI",
			wantEmail: "ci@example.com",
		},
		{
			name:      "committer email only",
			sig:       Signature{Name: "Dev", Email: "dev@example.com", When: when, CommitterEmail: "ci@example.com"},
			wantName:  "Dev",
			wantEmail: "ci@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sig.Committer()

			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantEmail, got.Email)
			assert.Equal(t, when, got.When)
			assert.Empty(t, got.CommitterName)
			assert.Empty(t, got.CommitterEmail)
		})
	}
}
