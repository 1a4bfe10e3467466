package pagination

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestCursorRoundTrip(t *testing.T) {
	token := encodeCursor(1767254400000, "org-042")
	require.NotEmpty(t, token)

	clause, err := decodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1767254400000), clause.SortValue)
	assert.Equal(t, "org-042", clause.ID)
}

func TestDecodeCursor_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "%%%%"},
		{"base64 but not msgpack", "aGVsbG8gd29ybGQ"},
		{"empty", "AA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeCursor(tt.token)
			assert.ErrorIs(t, err, ErrInvalidCursor)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "cursor", ve.Field)
		})
	}
}

func TestDecodeCursor_MissingID(t *testing.T) {
	data, err := msgpack.Marshal(cursorPayload{V: 42})
	require.NoError(t, err)

	token := base64.RawURLEncoding.EncodeToString(data)
	_, err = decodeCursor(token)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestValidateCursor(t *testing.T) {
	assert.NoError(t, ValidateCursor(""), "an empty token starts from the newest row")
	assert.NoError(t, ValidateCursor(encodeCursor(1, "x")))
	assert.Error(t, ValidateCursor("garbage!"))
}
