package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	encoded, err := EncodeCursor(Cursor{CreatedAt: "2026-08-01T00:00:00Z", ID: "42"})
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.Equal(t, "42", decoded.ID)
	require.Equal(t, "2026-08-01T00:00:00Z", decoded.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!!")
	require.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ id string }
	rows := []*row{{"a"}, {"b"}, {"c"}}

	info := BuildCursorPageInfo(rows, 2, func(r *row) string { return r.id })
	require.True(t, info.HasMore)
	require.Equal(t, "b", info.NextCursor)

	info = BuildCursorPageInfo(rows[:2], 2, func(r *row) string { return r.id })
	require.False(t, info.HasMore)
	require.Equal(t, "b", info.NextCursor)

	info = BuildCursorPageInfo(nil, 2, func(r *row) string { return r.id })
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}
