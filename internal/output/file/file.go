package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/crimson-sun/timber/internal/engine/compactor"
	"github.com/crimson-sun/timber/internal/model"
	"github.com/crimson-sun/timber/internal/output"
)

const defaultBufSize = 64 * 1024 // 64KB

// Format is the on-disk record encoding.
type Format string

const (
	FormatNDJSON  Format = "ndjson"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat maps a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatNDJSON:
		return FormatNDJSON, nil
	case FormatMsgpack:
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown file format %q", s)
	}
}

// Option configures a file Output.
type Option func(*Output)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(o *Output) { o.maxSize = bytes }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(o *Output) { o.bufSize = bytes }
}

// WithFormat selects NDJSON (default) or a stream of msgpack records.
func WithFormat(f Format) Option {
	return func(o *Output) { o.format = f }
}

// Output appends reports to a file with buffered I/O and optional size-based rotation.
type Output struct {
	w         *bufio.Writer
	f         *os.File
	mu        sync.Mutex
	path      string
	format    Format
	verbosity compactor.Verbosity
	maxSize   int64 // 0 = no rotation
	written   int64
	bufSize   int
	scratch   bytes.Buffer
	mp        *msgpack.Encoder
}

// New creates a file output that appends to the given path.
func New(path string, verbosity compactor.Verbosity, opts ...Option) (*Output, error) {
	o := &Output{
		path:      path,
		format:    FormatNDJSON,
		verbosity: verbosity,
		bufSize:   defaultBufSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.format == FormatMsgpack {
		o.mp = msgpack.NewEncoder(&o.scratch)
		o.mp.SetCustomStructTag("json")
		o.mp.SetOmitEmpty(true)
	}
	if err := o.openFile(); err != nil {
		return nil, err
	}
	return o, nil
}

// Write encodes the result as one record and appends it to the file.
func (o *Output) Write(_ context.Context, result model.TraceResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := o.encode(output.FormatResult(result, o.verbosity))
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}

	if o.maxSize > 0 && o.written > 0 && o.written+int64(len(data)) > o.maxSize {
		if err := o.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := o.w.Write(data)
	o.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

func (o *Output) encode(rep output.Report) ([]byte, error) {
	if o.format == FormatMsgpack {
		o.scratch.Reset()
		if err := o.mp.Encode(rep); err != nil {
			return nil, err
		}
		return o.scratch.Bytes(), nil
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Close flushes the buffer and closes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.w.Flush(); err != nil {
		o.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return o.f.Close()
}

// openFile opens (or creates) the output file and wraps it in a bufio.Writer.
func (o *Output) openFile() error {
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", o.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", o.path, err)
	}
	o.f = f
	o.w = bufio.NewWriterSize(f, o.bufSize)
	o.written = info.Size()
	return nil
}

// rotate closes the current file, shifts {path}.N to {path}.N+1 and
// reopens {path} empty.
func (o *Output) rotate() error {
	if err := o.w.Flush(); err != nil {
		return err
	}
	if err := o.f.Close(); err != nil {
		return err
	}

	for i := 9; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", o.path, i), fmt.Sprintf("%s.%d", o.path, i+1))
	}
	if err := os.Rename(o.path, o.path+".1"); err != nil {
		return err
	}

	o.written = 0
	return o.openFile()
}
