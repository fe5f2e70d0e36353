// Package sink provides matcher.Sink implementations: a real one that
// shells out, and a recording one for tests.
package sink

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// ExecSink dispatches commands to "sh -c <cmd>", inheriting the
// daemon's environment and working directory unmodified. Commands are
// serialized through a single worker goroutine draining a buffered
// channel, so that an async sink still delivers commands in the
// declaration order the matcher handed them over in — a worker pool
// would not preserve that order.
type ExecSink struct {
	queue   chan string
	timeout time.Duration
	log     zerolog.Logger
	done    chan struct{}
}

// NewExecSink starts the serializing worker. timeout bounds how long
// a single command may run before being killed, mirroring
// chzchzchz-pedals' bounded exec.CommandContext.
func NewExecSink(timeout time.Duration, log zerolog.Logger) *ExecSink {
	s := &ExecSink{
		queue:   make(chan string, 16),
		timeout: timeout,
		log:     log,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *ExecSink) run() {
	for cmd := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := exec.CommandContext(ctx, "sh", "-c", cmd).Run()
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("command", cmd).Msg("command exited non-zero")
		}
	}
	close(s.done)
}

// Dispatch enqueues cmd for execution and returns immediately; it
// never blocks the matcher beyond the channel send, and never calls
// back into the matcher.
func (s *ExecSink) Dispatch(cmd string) error {
	s.queue <- cmd
	return nil
}

// Close stops accepting new commands and waits for the queue to
// drain.
func (s *ExecSink) Close() {
	close(s.queue)
	<-s.done
}
