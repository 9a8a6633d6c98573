package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink accepts finished training samples
type Sink interface {
	Append(sample TrainingSample) error
}

// MultiSink fans a sample out to every sink and joins their errors
type MultiSink []Sink

func (m MultiSink) Append(sample TrainingSample) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Append(sample); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder writes samples as JSON lines to a file
type Recorder struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	count  int
}

// NewRecorder creates a closed recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Open starts appending to path, creating parent directories
func (r *Recorder) Open(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.closeLocked(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open dataset file: %w", err)
	}

	r.path = path
	r.file = file
	r.writer = bufio.NewWriter(file)
	r.count = 0
	return nil
}

// IsOpen reports whether samples are being written
func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

// Path returns the current output file
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Count returns the number of samples written since Open
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Append writes one line and flushes it. A closed recorder drops the sample.
func (r *Recorder) Append(sample TrainingSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	line, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	if _, err := r.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush sample: %w", err)
	}

	r.count++
	return nil
}

// Close flushes and closes the file
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if r.file == nil {
		return nil
	}

	flushErr := r.writer.Flush()
	closeErr := r.file.Close()
	r.file = nil
	r.writer = nil

	if flushErr != nil {
		return fmt.Errorf("failed to flush dataset file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close dataset file: %w", closeErr)
	}
	return nil
}

// ReadSamples loads every sample from a JSON lines file
func ReadSamples(path string) ([]TrainingSample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var samples []TrainingSample
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var s TrainingSample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("failed to decode line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return samples, nil
}
