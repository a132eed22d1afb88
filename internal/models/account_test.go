package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_MarshalJSON(t *testing.T) {
	tests := []struct {
		role    Role
		isAdmin bool
		isOwner bool
	}{
		{RoleUser, false, false},
		{RoleAdmin, true, false},
		{RoleOwner, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			data, err := json.Marshal(Account{ID: "a1", Email: "a@example.com", PasswordHash: "$2a$secret", Role: tt.role})
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "a1", got["id"])
			assert.Equal(t, string(tt.role), got["role"])
			assert.Equal(t, tt.isAdmin, got["isAdmin"])
			assert.Equal(t, tt.isOwner, got["isOwner"])
			assert.NotContains(t, string(data), "$2a$")
		})
	}

	// Pointers and slices go through the same encoding.
	data, err := json.Marshal([]*Account{{ID: "a2", Role: RoleAdmin}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"isAdmin":true`)
}
