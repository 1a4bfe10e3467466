package pagination

import (
	"encoding/base64"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/adrian-moloca/clinicache/pkg/store"
)

// cursorPayload is the decoded form of a cursor token: the last-seen sort
// value and the tie-breaking id. The token is opaque to every other
// component; only this package encodes or decodes it.
type cursorPayload struct {
	V  int64  `msgpack:"v"`
	ID string `msgpack:"id"`
}

// encodeCursor mints the token for the last row of a page.
func encodeCursor(sortValue int64, id string) string {
	data, _ := msgpack.Marshal(cursorPayload{V: sortValue, ID: id})
	return base64.RawURLEncoding.EncodeToString(data)
}

// ValidateCursor checks a cursor token without running a query, so callers
// can reject malformed tokens before touching the cache. An empty token is
// valid: it means "start from the newest row".
func ValidateCursor(token string) error {
	if token == "" {
		return nil
	}
	_, err := decodeCursor(token)
	return err
}

// decodeCursor parses a token back into a scan position.
func decodeCursor(token string) (*store.CursorClause, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, &ValidationError{Field: "cursor", Message: "not a valid cursor token", Err: ErrInvalidCursor}
	}
	var p cursorPayload
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, &ValidationError{Field: "cursor", Message: "not a valid cursor token", Err: ErrInvalidCursor}
	}
	if p.ID == "" {
		return nil, &ValidationError{Field: "cursor", Message: "cursor is missing its tie-break id", Err: ErrInvalidCursor}
	}
	return &store.CursorClause{SortValue: p.V, ID: p.ID}, nil
}
