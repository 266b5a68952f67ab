package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticVerify(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		fails bool
	}{
		{name: "plain", in: "alice", want: "alice"},
		{name: "canonicalized", in: "  Alice@Example.COM ", want: "alice@example.com"},
		{name: "empty", in: "", fails: true},
		{name: "whitespace only", in: "   ", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Static{}.Verify(context.Background(), tt.in)
			if tt.fails {
				require.ErrorIs(t, err, ErrEmptyIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
