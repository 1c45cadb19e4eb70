package pagination

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// cursorLen is 8 bytes of unix nanoseconds followed by the 16 byte row id.
const cursorLen = 8 + 16

var ErrMalformedCursor = errors.New("malformed cursor")

// Cursor marks the last row of a page in (created_at, id) order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor renders cursor as an opaque, URL safe token.
func EncodeCursor(cursor Cursor) string {
	buf := make([]byte, cursorLen)
	binary.BigEndian.PutUint64(buf[:8], uint64(cursor.CreatedAt.UnixNano()))
	copy(buf[8:], cursor.ID[:])
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ParseCursor decodes a token from EncodeCursor. A blank token means the
// first page and yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	buf, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(buf) != cursorLen {
		return nil, ErrMalformedCursor
	}
	id, err := uuid.FromBytes(buf[8:])
	if err != nil {
		return nil, ErrMalformedCursor
	}
	nanos := int64(binary.BigEndian.Uint64(buf[:8]))
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}
