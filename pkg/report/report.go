// Package report implements the progress sinks a pass reports to. A
// reporter only observes; it never changes what a pass does.
package report

import (
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/rs/zerolog"
)

// Nop discards every event.
type Nop struct{}

func (Nop) BeginTask(string, int) {}
func (Nop) SubTask(string) {}
func (Nop) Worked(int) {}
func (Nop) Error(error, map[string]string) {}
func (Nop) Done() {}

var _ types.Reporter = Nop{}

// Log writes events to a zerolog logger.
type Log struct {
	logger zerolog.Logger
	task   string
	worked int
}

// NewLog returns a reporter writing to logger.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) BeginTask(name string, total int) {
	l.task = name
	l.worked = 0
	l.logger.Info().Str("task", name).Int("total", total).Msg("Task started")
}

func (l *Log) SubTask(name string) {
	l.logger.Debug().Str("task", l.task).Str("step", name).Msg("Step")
}

func (l *Log) Worked(n int) {
	l.worked += n
}

func (l *Log) Error(err error, fields map[string]string) {
	event := l.logger.Error().Err(err).Str("task", l.task)
	for k, v := range fields {
		event = event.Str(k, v)
	}
	event.Msg("Task error")
}

func (l *Log) Done() {
	l.logger.Info().Str("task", l.task).Int("worked", l.worked).Msg("Task done")
}

// Multi fans events out to several reporters.
type Multi []types.Reporter

func (m Multi) BeginTask(name string, total int) {
	for _, r := range m {
		r.BeginTask(name, total)
	}
}

func (m Multi) SubTask(name string) {
	for _, r := range m {
		r.SubTask(name)
	}
}

func (m Multi) Worked(n int) {
	for _, r := range m {
		r.Worked(n)
	}
}

func (m Multi) Error(err error, fields map[string]string) {
	for _, r := range m {
		r.Error(err, fields)
	}
}

func (m Multi) Done() {
	for _, r := range m {
		r.Done()
	}
}
