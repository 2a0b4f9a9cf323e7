package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oplogtools/logquery/internal/logging"
	"github.com/oplogtools/logquery/internal/match"
	"github.com/oplogtools/logquery/internal/monitoring"
	"github.com/oplogtools/logquery/internal/scan"
)

func writeGzip(t *testing.T, path string, lines []string) {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	for _, l := range lines {
		_, err := gw.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newDecoder(t *testing.T, ips, domains []string) *scan.Decoder {
	t.Helper()
	ipm, err := match.NewIPMatcher(ips)
	require.NoError(t, err)
	return scan.NewDecoder(scan.NewFilter(ipm, match.NewDomainMatcher(domains)))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "log.gz")
	writeGzip(t, in, []string{
		"10.1.2.3|a.example.com|rest",
		"10.1.2.4|b.other.com|rest",
	})

	dec := newDecoder(t, []string{"10.1.2.0/24"}, []string{"*.example.com"})
	outPath := filepath.Join(dir, "out.txt")

	res, err := Run(Task{
		Name:       "aggregated",
		Schema:     scan.Aggregated,
		Files:      []string{in},
		OutputPath: outPath,
	}, dec, Options{Workers: 2, Log: logging.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Matched)
	assert.Equal(t, []string{"10.1.2.3|a.example.com|rest"}, readLines(t, outPath))
	assert.Equal(t, int64(len("10.1.2.3|a.example.com|rest")+1), res.BytesWritten)
}

func TestRunEmptyRulesCopiesEverything(t *testing.T) {
	dir := t.TempDir()
	var files []string
	total := 0
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, fmt.Sprintf("in%d.gz", i))
		var lines []string
		for j := 0; j < 50; j++ {
			lines = append(lines, fmt.Sprintf("1.2.3.%d|host%d.example.com|payload-%d-%d", j%250, j, i, j))
		}
		writeGzip(t, path, lines)
		files = append(files, path)
		total += len(lines)
	}

	dec := newDecoder(t, nil, nil)
	outPath := filepath.Join(dir, "out.txt")
	res, err := Run(Task{
		Name:       "aggregated",
		Schema:     scan.Aggregated,
		Files:      files,
		OutputPath: outPath,
	}, dec, Options{Workers: 3, Log: logging.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, int64(total), res.Matched)
	assert.Len(t, readLines(t, outPath), total)
}

// The concurrent pipeline must find exactly the matches a sequential
// decode of every file finds, regardless of pool size.
func TestRunConservation(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 8; i++ {
		path := filepath.Join(dir, fmt.Sprintf("in%d.gz", i))
		var lines []string
		for j := 0; j < 200; j++ {
			if (i+j)%3 == 0 {
				lines = append(lines, fmt.Sprintf("10.1.2.%d|x.example.com|f%d", j%250, j))
			} else {
				lines = append(lines, fmt.Sprintf("172.16.0.%d|y.other.com|f%d", j%250, j))
			}
		}
		writeGzip(t, path, lines)
		files = append(files, path)
	}

	dec := newDecoder(t, []string{"10.1.2.0/24"}, []string{"*.example.com"})

	var sequential int
	var want []string
	for _, f := range files {
		n, err := dec.DecodeFile(f, scan.Aggregated, func(line []byte) {
			want = append(want, string(line))
		})
		require.NoError(t, err)
		sequential += n
	}
	sort.Strings(want)

	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			outPath := filepath.Join(t.TempDir(), "out.txt")
			res, err := Run(Task{
				Name:       "aggregated",
				Schema:     scan.Aggregated,
				Files:      files,
				OutputPath: outPath,
			}, dec, Options{Workers: workers, Log: logging.NewNop()})
			require.NoError(t, err)

			assert.Equal(t, int64(sequential), res.Matched)

			got := readLines(t, outPath)
			sort.Strings(got)
			assert.Equal(t, want, got)
		})
	}
}

func TestRunSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.gz")
	writeGzip(t, good, []string{"1.1.1.1|a.com"})

	corrupt := filepath.Join(dir, "corrupt.gz")
	require.NoError(t, os.WriteFile(corrupt, []byte("not gzip at all"), 0o644))

	missing := filepath.Join(dir, "missing.gz")

	dec := newDecoder(t, nil, nil)
	metrics := monitoring.New()
	outPath := filepath.Join(dir, "out.txt")
	res, err := Run(Task{
		Name:       "aggregated",
		Schema:     scan.Aggregated,
		Files:      []string{good, corrupt, missing},
		OutputPath: outPath,
	}, dec, Options{Workers: 2, Log: logging.NewNop(), Metrics: metrics})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Matched)
	assert.Equal(t, []string{"1.1.1.1|a.com"}, readLines(t, outPath))
}

func TestRunNativeSchema(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "250_132228145205_20251209151802_1.gz")
	writeGzip(t, in, []string{
		"f0|f1|f2|f3|10.1.2.3|f5|f6|a.example.com|f8",
		"f0|f1|f2|f3|10.9.9.9|f5|f6|a.example.com|f8",
	})

	dec := newDecoder(t, []string{"10.1.2.0/24"}, []string{"*.example.com"})
	outPath := filepath.Join(dir, "out.txt")
	res, err := Run(Task{
		Name:       "native",
		Schema:     scan.Native,
		Files:      []string{in},
		OutputPath: outPath,
	}, dec, Options{Workers: 1, Log: logging.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Matched)
}

func TestRunNoFiles(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.txt")
	dec := newDecoder(t, nil, nil)

	res, err := Run(Task{
		Name:       "aggregated",
		Schema:     scan.Aggregated,
		Files:      nil,
		OutputPath: outPath,
	}, dec, Options{Workers: 2, Log: logging.NewNop()})
	require.NoError(t, err)

	assert.Equal(t, int64(0), res.Matched)
	assert.Empty(t, readLines(t, outPath))
}

func TestRunBadOutputPath(t *testing.T) {
	dec := newDecoder(t, nil, nil)
	_, err := Run(Task{
		Name:       "aggregated",
		Schema:     scan.Aggregated,
		OutputPath: filepath.Join(t.TempDir(), "no", "such", "dir", "out.txt"),
	}, dec, Options{Log: logging.NewNop()})
	assert.Error(t, err)
}

func TestProgressTerminatesOnCompletion(t *testing.T) {
	p := newProgress("test", 2, 5*time.Millisecond, time.Hour, logging.NewNop())
	p.completed.Store(2)

	done := make(chan struct{})
	go func() {
		p.run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("progress monitor did not terminate")
	}
	p.stop()
}
