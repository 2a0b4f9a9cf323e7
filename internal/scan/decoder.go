package scan

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const (
	// fileBufSize buffers raw reads from disk.
	fileBufSize = 2 * 1024 * 1024
	// lineBufSize buffers decompressed output for line splitting.
	lineBufSize = 1024 * 1024
)

// Sink receives one matched record. The slice is only valid for the
// duration of the call; callers that retain it must copy.
type Sink func(line []byte)

// Decoder runs the per-file decode-and-filter pass. Stateless apart from
// the shared filter, so one instance serves all workers concurrently.
type Decoder struct {
	filter *Filter
}

// NewDecoder creates a decoder applying the given filter.
func NewDecoder(filter *Filter) *Decoder {
	return &Decoder{filter: filter}
}

// DecodeFile opens and decodes one gzip-compressed log file from disk.
// Returns the number of matched records. Errors are per-file: the caller
// logs and skips, they never abort a run.
func (d *Decoder) DecodeFile(path string, schema Schema, sink Sink) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return d.Decode(bufio.NewReaderSize(f, fileBufSize), schema, sink)
}

// DecodeBuffer decodes a fully-read compressed file held in memory.
func (d *Decoder) DecodeBuffer(data []byte, schema Schema, sink Sink) (int, error) {
	return d.Decode(bytes.NewReader(data), schema, sink)
}

// Decode decompresses r as a (possibly multi-member) gzip stream, splits
// it into lines, trims trailing '\n'/'\r', skips empty lines, and invokes
// sink for every record the filter accepts. Returns the match count.
func (d *Decoder) Decode(r io.Reader, schema Schema, sink Sink) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	br := bufio.NewReaderSize(gz, lineBufSize)
	matched := 0
	var spill []byte // holds lines longer than the read buffer

	for {
		chunk, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			spill = append(spill[:0], chunk...)
			for err == bufio.ErrBufferFull {
				chunk, err = br.ReadSlice('\n')
				spill = append(spill, chunk...)
			}
			chunk = spill
		}
		if line := trimEOL(chunk); len(line) > 0 {
			if d.filter.Match(line, schema) {
				sink(line)
				matched++
			}
		}
		if err == io.EOF {
			return matched, nil
		}
		if err != nil {
			return matched, fmt.Errorf("failed to decode stream: %w", err)
		}
	}
}

func trimEOL(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
