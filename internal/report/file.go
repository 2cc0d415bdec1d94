package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// --- JSON ---

// JSONSink buffers records and writes them as one indented JSON array.
type JSONSink struct {
	w       io.Writer
	records []any
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONSink creates a new JSON array sink.
func NewJSONSink(w io.Writer, logger *slog.Logger) *JSONSink {
	return &JSONSink{
		w:       w,
		records: make([]any, 0),
		logger:  logger.With("component", "json_sink"),
	}
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Store(records ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *JSONSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	s.logger.Debug("JSON written", "records", len(s.records))
	return nil
}

// --- JSONL ---

// JSONLSink writes one JSON object per line as records arrive.
type JSONLSink struct {
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLSink creates a new streaming JSON lines sink.
func NewJSONLSink(w io.Writer, logger *slog.Logger) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{
		enc:    enc,
		logger: logger.With("component", "jsonl_sink"),
	}
}

func (s *JSONLSink) Name() string { return "jsonl" }

func (s *JSONLSink) Store(records ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if err := s.enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		s.count++
	}
	return nil
}

func (s *JSONLSink) Close() error {
	s.logger.Debug("JSONL written", "records", s.count)
	return nil
}

// --- CSV ---

// CSVSink writes flattened records as CSV rows. The header comes from the
// first record.
type CSVSink struct {
	writer  *csv.Writer
	headers []string
	mu      sync.Mutex
	count   int
	logger  *slog.Logger
}

// NewCSVSink creates a new CSV sink.
func NewCSVSink(w io.Writer, logger *slog.Logger) *CSVSink {
	return &CSVSink{
		writer: csv.NewWriter(w),
		logger: logger.With("component", "csv_sink"),
	}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Store(records ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		flat, err := Flatten(r)
		if err != nil {
			return err
		}

		if s.headers == nil {
			s.headers = sortedKeys(flat)
			if err := s.writer.Write(s.headers); err != nil {
				return fmt.Errorf("write CSV header: %w", err)
			}
		}

		row := make([]string, len(s.headers))
		for i, h := range s.headers {
			row[i] = flat[h]
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		s.count++
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVSink) Close() error {
	s.logger.Debug("CSV written", "rows", s.count)
	s.writer.Flush()
	return s.writer.Error()
}
