package rkio

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
)

// BackendFile labels file I/O in metrics.
const BackendFile = "file"

// File layout: the magic, then one frame per model.
// Frame format: [DataLen:4][Checksum:4][Data:N], big endian, where Data is
// the snappy block encoding of the model's JSON and Checksum is the IEEE
// CRC-32 of Data.
var fileMagic = [4]byte{'R', 'K', 'M', '1'}

const frameHeaderSize = 8

// Option configures file and S3 readers and writers.
type Option func(*options)

type options struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records reads and writes into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) { o.metrics = r }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrDefault(o.logger)
	return o
}

// FileWriter appends models to a model file.
type FileWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	count  int
	opts   options
}

// CreateFile creates (or truncates) a model file at path.
func CreateFile(path string, opts ...Option) (*FileWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create model file: %w", err)
	}
	w := &FileWriter{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
		opts:   buildOptions(opts),
	}
	if _, err := w.writer.Write(fileMagic[:]); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write model file header: %w", err)
	}
	return w, nil
}

// Write implements Writer. The frame is buffered until Flush or Close.
func (w *FileWriter) Write(_ context.Context, m *pipeline.Model) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return false, ErrClosed
	}
	if m == nil || !m.Complete() {
		w.opts.logger.Warn("skipping incomplete model", logging.Component("rkio"), logging.Path(w.path))
		return false, nil
	}

	n, err := w.writeFrame(m)
	if w.opts.metrics != nil {
		w.opts.metrics.RecordWrite(BackendFile, n, err)
	}
	if err != nil {
		return false, fmt.Errorf("write model %s: %w", m.ID, err)
	}
	w.count++
	return true, nil
}

func (w *FileWriter) writeFrame(m *pipeline.Model) (int, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return 0, err
	}
	compressed := snappy.Encode(nil, data)

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(compressed)))
	binary.BigEndian.PutUint32(header[4:8], crc32.ChecksumIEEE(compressed))
	if _, err := w.writer.Write(header[:]); err != nil {
		return 0, err
	}
	if _, err := w.writer.Write(compressed); err != nil {
		return 0, err
	}
	return frameHeaderSize + len(compressed), nil
}

// Count returns the number of models written so far.
func (w *FileWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Flush writes buffered frames to the file.
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	return w.writer.Flush()
}

// Close flushes, syncs and closes the file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	defer func() { w.file = nil }()

	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("flush model file: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	return w.file.Close()
}

// FileReader reads a model file through a read-only memory map.
type FileReader struct {
	mu     sync.Mutex
	path   string
	mmap   *mmap.ReaderAt
	offset int64
	opts   options
}

// OpenFile maps the model file at path.
func OpenFile(path string, opts ...Option) (*FileReader, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}

	var magic [4]byte
	if reader.Len() < len(magic) {
		_ = reader.Close()
		return nil, fmt.Errorf("%w: %s is too short", ErrCorrupt, path)
	}
	if _, err := reader.ReadAt(magic[:], 0); err != nil {
		_ = reader.Close()
		return nil, err
	}
	if magic != fileMagic {
		_ = reader.Close()
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, magic)
	}

	return &FileReader{
		path:   path,
		mmap:   reader,
		offset: int64(len(magic)),
		opts:   buildOptions(opts),
	}, nil
}

// Next implements Reader.
func (r *FileReader) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mmap != nil && r.offset < int64(r.mmap.Len())
}

// Read implements Reader.
func (r *FileReader) Read() (*pipeline.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mmap == nil {
		return nil, ErrClosed
	}
	if r.offset >= int64(r.mmap.Len()) {
		return nil, io.EOF
	}

	var header [frameHeaderSize]byte
	if _, err := r.mmap.ReadAt(header[:], r.offset); err != nil {
		return nil, fmt.Errorf("%w: truncated frame header at %d", ErrCorrupt, r.offset)
	}
	size := int64(binary.BigEndian.Uint32(header[0:4]))
	checksum := binary.BigEndian.Uint32(header[4:8])

	start := r.offset + frameHeaderSize
	if start+size > int64(r.mmap.Len()) {
		return nil, fmt.Errorf("%w: frame at %d overruns the file", ErrCorrupt, r.offset)
	}
	compressed := make([]byte, size)
	if _, err := r.mmap.ReadAt(compressed, start); err != nil && err != io.EOF {
		return nil, err
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch at %d", ErrCorrupt, r.offset)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress frame at %d: %w", ErrCorrupt, r.offset, err)
	}
	var m pipeline.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model at %d: %w", r.offset, err)
	}

	r.offset = start + size
	if r.opts.metrics != nil {
		r.opts.metrics.RecordRead(BackendFile)
	}
	return &m, nil
}

// ReadAll implements Reader.
func (r *FileReader) ReadAll() ([]*pipeline.Model, error) {
	return readAll(r)
}

// Close unmaps the file.
func (r *FileReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mmap == nil {
		return nil
	}
	err := r.mmap.Close()
	r.mmap = nil
	return err
}
