package pgxutil

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxOptions(t *testing.T) {
	tests := []struct {
		name string
		in   *sql.TxOptions
		want pgx.TxOptions
	}{
		{name: "nil uses server defaults", in: nil, want: pgx.TxOptions{}},
		{
			name: "serializable read write",
			in:   &sql.TxOptions{Isolation: sql.LevelSerializable},
			want: pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite},
		},
		{
			name: "snapshot maps to repeatable read",
			in:   &sql.TxOptions{Isolation: sql.LevelSnapshot, ReadOnly: true},
			want: pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly},
		},
		{
			name: "default level leaves iso empty",
			in:   &sql.TxOptions{},
			want: pgx.TxOptions{AccessMode: pgx.ReadWrite},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TxOptions(tt.in))
		})
	}
}

func TestWithPgxConnNilDB(t *testing.T) {
	called := false
	err := WithPgxConn(t.Context(), nil, func(*pgx.Conn) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
