package connector_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/crimson-sun/timber/internal/connector"
	"github.com/crimson-sun/timber/internal/engine/testdata"
)

func TestDecodeLayouts(t *testing.T) {
	array := testdata.NewTrace().Complete("RunTask", 1, 2, "").JSON()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(testdata.SampleTrace())
	zw.Close()

	tests := []struct {
		name  string
		input []byte
		want  int
	}{
		{"bare array", array, 3},
		{"leading whitespace", append([]byte("\n  "), array...), 3},
		{"trace object", testdata.SampleTrace(), 19},
		{"gzip", gz.Bytes(), 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := connector.Decode(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("len(events) = %d, want %d", len(events), tt.want)
			}
		})
	}
}

func TestDecodeNotTrace(t *testing.T) {
	for _, input := range []string{"", "   ", `{"other":1}`, `"text"`, "42"} {
		_, err := connector.DecodeBytes([]byte(input))
		if !errors.Is(err, connector.ErrNotTrace) {
			t.Errorf("DecodeBytes(%q) error = %v, want ErrNotTrace", input, err)
		}
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := connector.DecodeBytes([]byte(`[{"ph":"X",`))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestRegistry(t *testing.T) {
	connector.Register("test-registry", func() connector.Connector { return nil })

	if _, err := connector.Get("test-registry"); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if _, err := connector.Get("missing"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	found := false
	for _, p := range connector.Providers() {
		if p == "test-registry" {
			found = true
		}
	}
	if !found {
		t.Errorf("Providers() = %v, missing test-registry", connector.Providers())
	}
}
