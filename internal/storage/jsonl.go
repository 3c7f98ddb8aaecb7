package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ammCore/internal/model"
)

// ErrStop ends a ReadRecords scan early without reporting an error.
var ErrStop = errors.New("stop reading records")

// JsonlStorage writes instruction records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// Path returns the journal file location.
func (s *JsonlStorage) Path() string {
	return s.path
}

// PutRecordBatch appends a batch of records as JSON lines.
func (s *JsonlStorage) PutRecordBatch(_ context.Context, records []model.InstructionRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// LastSeq returns the highest sequence number in the journal, or 0 when the
// journal is missing or empty.
func (s *JsonlStorage) LastSeq() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last uint64
	err := ReadRecords(s.path, func(record model.InstructionRecord) error {
		if record.Seq > last {
			last = record.Seq
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return last, err
}

// ReadRecords streams the records of a JSONL journal to fn in file order.
// Returning ErrStop from fn ends the scan cleanly.
func ReadRecords(path string, fn func(model.InstructionRecord) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var record model.InstructionRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("decode journal line %d: %w", line, err)
		}
		if err := fn(record); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan journal: %w", err)
	}
	return nil
}
