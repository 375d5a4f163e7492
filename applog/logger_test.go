package applog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info("group built", "size", 5, "network", "testnet-v1.0")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"message":"group built"`)
	assert.Contains(t, out, `"size":5`)
	assert.Contains(t, out, `"network":"testnet-v1.0"`)
}

func TestZerologErrorCarriesErr(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Error("deploy failed", errors.New("boom"), "app", "APP_NAME")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"app":"APP_NAME"`)
}

func TestZerologSkipsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	// A non-string key and a dangling value are both dropped, not fatal.
	log.Warn("odd", 42, "x", "dangling")

	assert.Contains(t, buf.String(), `"message":"odd"`)
}

func TestNopDiscards(t *testing.T) {
	var log Logger = Nop{}
	log.Debug("a")
	log.Info("b", "k", "v")
	log.Warn("c")
	log.Error("d", errors.New("x"))
}
