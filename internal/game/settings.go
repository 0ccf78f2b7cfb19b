package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/multierr"
)

// Settings are the per-match options a room starts a game with.
type Settings map[string]any

// SettingsReader reads typed values out of Settings and collects every
// malformed entry instead of stopping at the first one.
type SettingsReader struct {
	s   Settings
	err error
}

func ReadSettings(s Settings) *SettingsReader {
	return &SettingsReader{s: s}
}

func (r *SettingsReader) fail(key, format string, args ...any) {
	r.err = multierr.Append(r.err, &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)})
}

func (r *SettingsReader) integer(key string) (int, bool) {
	v, ok := r.s[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			r.fail(key, "%v is not a whole number", n)
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			r.fail(key, "%v is not a whole number", n)
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			r.fail(key, "%q is not a number", n)
			return 0, false
		}
		return i, true
	}
	r.fail(key, "unsupported type %T", v)
	return 0, false
}

// PositiveInt returns def when key is missing or not positive. Only values
// that cannot be read as a number are errors.
func (r *SettingsReader) PositiveInt(key string, def int) int {
	n, ok := r.integer(key)
	if !ok || n <= 0 {
		return def
	}
	return n
}

// IntRange rejects values outside [lo, hi].
func (r *SettingsReader) IntRange(key string, def, lo, hi int) int {
	n, ok := r.integer(key)
	if !ok {
		return def
	}
	if n < lo || n > hi {
		r.fail(key, "%d outside %d..%d", n, lo, hi)
		return def
	}
	return n
}

func (r *SettingsReader) Bool(key string, def bool) bool {
	v, ok := r.s[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		p, err := strconv.ParseBool(b)
		if err != nil {
			r.fail(key, "%q is not a boolean", b)
			return def
		}
		return p
	}
	r.fail(key, "unsupported type %T", v)
	return def
}

func (r *SettingsReader) Err() error { return r.err }

// ConfigErrors unpacks an error built by SettingsReader.
func ConfigErrors(err error) []*ConfigError {
	var out []*ConfigError
	for _, e := range multierr.Errors(err) {
		if ce, ok := e.(*ConfigError); ok {
			out = append(out, ce)
		}
	}
	return out
}
