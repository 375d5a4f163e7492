// Package applog provides the structured logging collaborator used
// throughout the composer and deployer, backed by zerolog.
package applog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the minimal structured-logging surface the rest of the module
// depends on. Callers never import zerolog directly, only this interface.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, err error, kv ...interface{})
}

// Zerolog adapts a zerolog.Logger to Logger. kv pairs are added as string
// fields via Interface, matching zerolog's own Fields() convention.
type Zerolog struct {
	l zerolog.Logger
}

var _ Logger = Zerolog{}

// New builds a Zerolog logger writing to w as zerolog's JSON lines, one
// timestamped object per record.
func New(w io.Writer) Zerolog {
	return Zerolog{l: zerolog.New(w).With().Timestamp().Logger()}
}

// Default builds a Zerolog logger writing to stderr.
func Default() Zerolog {
	return New(os.Stderr)
}

func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

func (z Zerolog) Debug(msg string, kv ...interface{}) { withFields(z.l.Debug(), kv).Msg(msg) }
func (z Zerolog) Info(msg string, kv ...interface{})  { withFields(z.l.Info(), kv).Msg(msg) }
func (z Zerolog) Warn(msg string, kv ...interface{})  { withFields(z.l.Warn(), kv).Msg(msg) }
func (z Zerolog) Error(msg string, err error, kv ...interface{}) {
	withFields(z.l.Error().Err(err), kv).Msg(msg)
}

// Nop discards every log record. Useful as a zero-value default so callers
// never need a nil check.
type Nop struct{}

var _ Logger = Nop{}

func (Nop) Debug(string, ...interface{})        {}
func (Nop) Info(string, ...interface{})         {}
func (Nop) Warn(string, ...interface{})         {}
func (Nop) Error(string, error, ...interface{}) {}
