package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/marshallshelly/pebble-record/internal/config"
)

// structured reports whether the configured format is machine readable.
func structured() bool {
	return cfg.Format == config.FormatJSON || cfg.Format == config.FormatMsgpack
}

// emit writes v in the configured structured format.
func emit(w io.Writer, v any) error {
	switch cfg.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(v)
	default:
		return fmt.Errorf("format %q is not structured", cfg.Format)
	}
}
