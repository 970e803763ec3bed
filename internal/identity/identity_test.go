package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		id, role string
		want     User
		wantErr  bool
	}{
		{"default role", "u1", "", User{ID: "u1", Role: RoleStudent}, false},
		{"student", "u1", "student", User{ID: "u1", Role: RoleStudent}, false},
		{"admin", "u2", "admin", User{ID: "u2", Role: RoleAdmin}, false},
		{"unknown role", "u3", "mentor", User{}, true},
		{"missing id", "", "admin", User{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.id, tt.role)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestNew_MissingIDIsErrNoUser(t *testing.T) {
	_, err := New("", "")
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestUser(t *testing.T) {
	assert.True(t, User{ID: "a", Role: RoleAdmin}.IsAdmin())
	assert.False(t, User{ID: "a", Role: RoleStudent}.IsAdmin())
	assert.False(t, User{Role: RoleStudent}.Valid())
	assert.False(t, User{ID: "a", Role: "guest"}.Valid())
}
