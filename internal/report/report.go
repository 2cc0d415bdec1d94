// Package report writes result records to an output stream as JSON, JSON
// lines or CSV.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Sink is the interface for all output formats.
type Sink interface {
	// Store writes or buffers a batch of records. Records are values that
	// marshal to JSON objects.
	Store(records ...any) error

	// Close flushes pending output.
	Close() error

	// Name returns the format identifier.
	Name() string
}

// Formats lists the supported output formats.
var Formats = []string{"json", "jsonl", "csv"}

// New creates the sink for format writing to w.
func New(format string, w io.Writer, logger *slog.Logger) (Sink, error) {
	switch format {
	case "json", "":
		return NewJSONSink(w, logger), nil
	case "jsonl":
		return NewJSONLSink(w, logger), nil
	case "csv":
		return NewCSVSink(w, logger), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Write stores records in a fresh sink and closes it.
func Write(format string, w io.Writer, logger *slog.Logger, records ...any) error {
	sink, err := New(format, w, logger)
	if err != nil {
		return err
	}
	if err := sink.Store(records...); err != nil {
		return err
	}
	return sink.Close()
}

// Flatten turns a record into column/value pairs. Nested objects become
// dotted keys, string lists are joined with "; " and other lists are kept
// as JSON. Nulls are empty.
func Flatten(record any) (map[string]string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}

	flat := make(map[string]string, len(fields))
	flattenInto(flat, "", fields)
	return flat, nil
}

func flattenInto(flat map[string]string, prefix string, fields map[string]any) {
	for k, v := range fields {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case nil:
			flat[key] = ""
		case string:
			flat[key] = val
		case bool:
			flat[key] = strconv.FormatBool(val)
		case float64:
			flat[key] = strconv.FormatFloat(val, 'f', -1, 64)
		case map[string]any:
			flattenInto(flat, key, val)
		case []any:
			flat[key] = joinList(val)
		default:
			flat[key] = fmt.Sprint(val)
		}
	}
}

func joinList(list []any) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			data, _ := json.Marshal(list)
			return string(data)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
