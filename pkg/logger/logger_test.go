package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithActorRole(ctx, "staff")

	log.Error(ctx, "boom", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"actor_role":"staff"`)
	assert.Contains(t, out, `"stack"`)
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, buf.String(), `"stack"`)

	buf.Reset()
	log = New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})
	log.Warn(context.Background(), "warny")
	assert.NotContains(t, buf.String(), `"stack"`)
}

func TestLoggerWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})

	ctx := log.WithFields(context.Background(), map[string]any{"contact_id": "c-1", "user_id": "u-1"})
	log.Info(ctx, "contact.submitted")

	out := buf.String()
	require.Contains(t, out, "contact.submitted")
	assert.Contains(t, out, `"contact_id":"c-1"`)
	assert.Contains(t, out, `"user_id":"u-1"`)
	assert.Contains(t, out, `"service":"test"`)
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info(context.Background(), "ignored")
	log.Error(nil, "ignored", errors.New("x"))
}

func TestConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Format: "console", Output: buf})
	log.Info(log.WithField(context.Background(), "user_id", "u-1"), "profile.updated")

	out := buf.String()
	assert.Contains(t, out, "profile.updated")
	assert.Contains(t, out, "user_id=")
	assert.NotContains(t, out, `{"`)
}
