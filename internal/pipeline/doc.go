// Package pipeline coordinates the concurrent match-and-aggregate run
// over one resolved file list.
//
// Four roles cooperate per run: one IO goroutine reads whole compressed
// files and hands them to a bounded channel; N workers decode and filter
// them into 128 KiB output chunks; a single writer drains the chunk
// channel into the result file; a progress monitor periodically reports
// throughput off the hot path. Both channels are bounded, so a slow stage
// blocks its producer instead of growing memory: with a file queue of
// depth C, at most C plus one-per-worker file buffers are resident at
// once. Shutdown is driven purely by channel closes.
//
// Files are dispatched in discovery order but written in completion
// order; the total match count is deterministic, byte order across input
// files is not.
package pipeline
