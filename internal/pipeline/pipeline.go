package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/oplogtools/logquery/internal/logging"
	"github.com/oplogtools/logquery/internal/monitoring"
	"github.com/oplogtools/logquery/internal/scan"
)

const (
	// fileQueueDepth bounds resident whole-file buffers awaiting a worker.
	fileQueueDepth = 4
	// chunkQueueDepth decouples bursty match density from the writer.
	chunkQueueDepth = 1024
	// chunkSize is the worker accumulation buffer flush threshold.
	chunkSize = 128 * 1024
	// writerBufSize buffers the output file.
	writerBufSize = 4 * 1024 * 1024
)

// Task describes one pipeline run over a resolved file list.
type Task struct {
	Name       string
	Schema     scan.Schema
	Files      []string
	OutputPath string
}

// Options tunes a pipeline run.
type Options struct {
	// Workers is the compute pool size; 0 means one per logical core.
	Workers int
	// CoreIDs optionally pins worker i to CoreIDs[i]. Best-effort.
	CoreIDs []int
	// PollInterval and ReportInterval drive the progress monitor.
	// Zero values select the defaults (30s poll, 2m report).
	PollInterval   time.Duration
	ReportInterval time.Duration

	Log     *logging.Logger
	Metrics *monitoring.Metrics
}

// Result summarizes one completed run.
type Result struct {
	Matched      int64
	BytesWritten int64
	Elapsed      time.Duration
}

// fileTask owns one fully-read compressed file. Ownership moves from the
// IO goroutine to exactly one worker, which releases the buffer as soon
// as decoding finishes.
type fileTask struct {
	path string
	data []byte
}

// Run executes the pipeline to completion and returns the totals. The
// returned error covers fatal conditions only (output file creation or
// write failure); per-file read and decode errors are logged, counted as
// skips, and never abort the run.
func Run(task Task, dec *scan.Decoder, opts Options) (Result, error) {
	start := time.Now()
	log := opts.Log
	if log == nil {
		log = logging.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out, err := os.Create(task.OutputPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create output file: %w", err)
	}

	prog := newProgress(task.Name, len(task.Files), opts.PollInterval, opts.ReportInterval, log)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		prog.run()
	}()

	// Writer: single consumer of the chunk channel.
	chunks := make(chan []byte, chunkQueueDepth)
	writerDone := make(chan struct{})
	var bytesWritten int64
	var writeErr error
	go func() {
		defer close(writerDone)
		bw := bufio.NewWriterSize(out, writerBufSize)
		for chunk := range chunks {
			if writeErr != nil {
				continue // keep draining so workers never block
			}
			n, err := bw.Write(chunk)
			bytesWritten += int64(n)
			if err != nil {
				writeErr = err
			}
		}
		if writeErr == nil {
			writeErr = bw.Flush()
		}
	}()

	// IO: reads each candidate fully into memory in discovery order. The
	// bounded channel is the backpressure that caps resident file data.
	files := make(chan fileTask, fileQueueDepth)
	var ioWg sync.WaitGroup
	ioWg.Add(1)
	go func() {
		defer ioWg.Done()
		defer close(files)
		for _, path := range task.Files {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Error("failed to read file",
					zap.String("task", task.Name),
					zap.String("path", path),
					zap.Error(err))
				if opts.Metrics != nil {
					opts.Metrics.FilesSkipped.WithLabelValues(task.Name).Inc()
				}
				prog.completed.Add(1)
				continue
			}
			files <- fileTask{path: path, data: data}
		}
	}()

	// Workers: decode and filter, accumulating matches into chunks.
	var workerWg sync.WaitGroup
	var matched atomic.Int64
	for w := 0; w < workers; w++ {
		workerWg.Add(1)
		go func(idx int) {
			defer workerWg.Done()
			if idx < len(opts.CoreIDs) {
				if err := pinToCore(opts.CoreIDs[idx]); err != nil {
					log.Debug("cpu pinning failed",
						zap.Int("core", opts.CoreIDs[idx]),
						zap.Error(err))
				}
			}

			buf := make([]byte, 0, chunkSize+4096)
			for ft := range files {
				n, err := dec.DecodeBuffer(ft.data, task.Schema, func(line []byte) {
					buf = append(buf, line...)
					buf = append(buf, '\n')
					if len(buf) >= chunkSize {
						chunks <- buf
						buf = make([]byte, 0, chunkSize+4096)
					}
				})
				ft.data = nil // release the file buffer before the next receive
				if err != nil {
					log.Error("failed to process file",
						zap.String("task", task.Name),
						zap.String("path", ft.path),
						zap.Error(err))
					if opts.Metrics != nil {
						opts.Metrics.FilesSkipped.WithLabelValues(task.Name).Inc()
					}
				} else {
					matched.Add(int64(n))
					if opts.Metrics != nil {
						opts.Metrics.FilesProcessed.WithLabelValues(task.Name).Inc()
					}
				}
				prog.completed.Add(1)
			}
			if len(buf) > 0 {
				chunks <- buf
			}
		}(w)
	}

	ioWg.Wait()
	workerWg.Wait()
	close(chunks)
	<-writerDone
	prog.stop()
	<-monitorDone

	if err := out.Close(); err != nil && writeErr == nil {
		writeErr = err
	}

	res := Result{
		Matched:      matched.Load(),
		BytesWritten: bytesWritten,
		Elapsed:      time.Since(start),
	}
	if writeErr != nil {
		return res, fmt.Errorf("failed to write output: %w", writeErr)
	}
	if opts.Metrics != nil {
		opts.Metrics.ObserveTask(task.Name, int(res.Matched), res.BytesWritten, res.Elapsed)
	}
	return res, nil
}
