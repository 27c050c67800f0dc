package connector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/crimson-sun/timber/internal/model"
)

// ErrNotTrace is returned when the input is neither an event array nor an
// object carrying traceEvents.
var ErrNotTrace = errors.New("not a trace: expected an event array or an object with traceEvents")

var gzipMagic = []byte{0x1f, 0x8b}

// Decode reads a trace in either of the two layouts browsers write: a bare
// JSON array of events, or an object with a traceEvents array. Gzip input
// is detected and decompressed transparently.
func Decode(r io.Reader) ([]model.RawEvent, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(2); err == nil && bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("decode trace: %w", err)
		}
		defer zr.Close()
		br = bufio.NewReader(zr)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an uncompressed trace held in memory.
func DecodeBytes(data []byte) ([]model.RawEvent, error) {
	data = bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(data) == 0 {
		return nil, ErrNotTrace
	}

	switch data[0] {
	case '[':
		var events []model.RawEvent
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decode trace: %w", err)
		}
		return events, nil
	case '{':
		var doc struct {
			TraceEvents []model.RawEvent `json:"traceEvents"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode trace: %w", err)
		}
		if doc.TraceEvents == nil {
			return nil, ErrNotTrace
		}
		return doc.TraceEvents, nil
	default:
		return nil, ErrNotTrace
	}
}
