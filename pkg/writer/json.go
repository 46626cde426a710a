// Package writer encodes analysis results as JSON or gzipped JSON.
package writer

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent is the per-level indentation; empty means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{}
}

// NewPrettyJSONWriter creates a JSON writer with two-space indentation.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write encodes data to w.
func (jw *JSONWriter[T]) Write(data T, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if jw.Indent != "" {
		encoder.SetIndent("", jw.Indent)
	}
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// Bytes returns the encoded data.
func (jw *JSONWriter[T]) Bytes(data T) ([]byte, error) {
	var buf bytes.Buffer
	if err := jw.Write(data, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteToFile encodes data into path, creating parent directories.
func (jw *JSONWriter[T]) WriteToFile(data T, path string) error {
	return writeFile(path, func(w io.Writer) error { return jw.Write(data, w) })
}

// GzipWriter writes data as gzipped JSON.
type GzipWriter[T any] struct {
	// CompressionLevel is a compress/gzip level.
	CompressionLevel int
}

// NewGzipWriter creates a new gzip writer with default compression.
func NewGzipWriter[T any]() *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: gzip.DefaultCompression}
}

// NewGzipWriterWithLevel creates a gzip writer with the given compression level.
func NewGzipWriterWithLevel[T any](level int) *GzipWriter[T] {
	return &GzipWriter[T]{CompressionLevel: level}
}

// Write encodes data as gzipped JSON to w.
func (gw *GzipWriter[T]) Write(data T, w io.Writer) error {
	_, err := gw.write(data, w)
	return err
}

func (gw *GzipWriter[T]) write(data T, w io.Writer) (int64, error) {
	zw, err := gzip.NewWriterLevel(w, gw.CompressionLevel)
	if err != nil {
		return 0, fmt.Errorf("failed to create gzip writer: %w", err)
	}

	counter := &countingWriter{w: zw}
	if err := json.NewEncoder(counter).Encode(data); err != nil {
		zw.Close()
		return 0, fmt.Errorf("failed to encode data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return counter.n, nil
}

// WriteToFile writes gzipped JSON into path, creating parent directories.
func (gw *GzipWriter[T]) WriteToFile(data T, path string) error {
	_, err := gw.WriteToFileWithStats(data, path)
	return err
}

// WriteResult describes a written gzip file.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFileWithStats writes gzipped JSON into path and reports sizes.
func (gw *GzipWriter[T]) WriteToFileWithStats(data T, path string) (*WriteResult, error) {
	var jsonSize int64
	err := writeFile(path, func(w io.Writer) error {
		n, err := gw.write(data, w)
		jsonSize = n
		return err
	})
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	result := &WriteResult{JSONSize: jsonSize, CompressedSize: info.Size()}
	if jsonSize > 0 {
		result.CompressionPct = float64(result.CompressedSize) / float64(jsonSize) * 100
	}
	return result, nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
