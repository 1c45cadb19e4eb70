package pagination

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 7, NormalizeLimit(7))
}

func TestCursorSurvivesQueryString(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2024, 3, 20, 10, 0, 0, 123, time.UTC), ID: uuid.Must(uuid.NewV7())}
	token := EncodeCursor(in)
	assert.Equal(t, token, url.QueryEscape(token), "token must not need escaping")

	out, err := ParseCursor(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorErrors(t *testing.T) {
	c, err := ParseCursor("  ")
	assert.NoError(t, err)
	assert.Nil(t, c)

	_, err = ParseCursor("not base64!")
	assert.ErrorIs(t, err, ErrMalformedCursor)

	_, err = ParseCursor("c2hvcnQ")
	assert.ErrorIs(t, err, ErrMalformedCursor)
}

func TestNormalizePage(t *testing.T) {
	p := NormalizePage(0, 0)
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, p)
	assert.Equal(t, 0, p.Offset())

	p = NormalizePage(3, 20)
	assert.Equal(t, 40, p.Offset())

	assert.Equal(t, MaxLimit, NormalizePage(1, 1000).Size)
}

func TestPageInfo(t *testing.T) {
	info := NormalizePage(2, 20).Info(45)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	info = NormalizePage(1, 20).Info(0)
	assert.Equal(t, 0, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrev)
}
