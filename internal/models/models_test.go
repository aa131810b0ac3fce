package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestFullName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first *string
		last  *string
		want  string
	}{
		{"both parts", strptr("Ada"), strptr("Lovelace"), "Ada Lovelace"},
		{"first only", strptr("A"), nil, "A"},
		{"last only", nil, strptr("Lovelace"), "Lovelace"},
		{"both nil", nil, nil, "Unknown User"},
		{"both empty strings", strptr(""), strptr(""), "Unknown User"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{FirstName: tt.first, LastName: tt.last}
			require.Equal(t, tt.want, u.FullName())
		})
	}
}
