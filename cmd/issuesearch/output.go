package main

import (
	"encoding/json"
	"io"
	"time"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if flagPretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func (a *app) location() *time.Location {
	if a.loc == nil {
		return time.UTC
	}
	return a.loc
}
