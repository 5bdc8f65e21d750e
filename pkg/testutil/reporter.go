package testutil

import (
	"sync"

	"github.com/arthur-debert/copyfold/pkg/types"
)

// ReportedError is one Error event.
type ReportedError struct {
	Err    error
	Fields map[string]string
}

// Reporter records every event it receives.
type Reporter struct {
	mu       sync.Mutex
	Tasks    []string
	SubTasks []string
	Units    int
	Errors   []ReportedError
	Finished int
}

func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) BeginTask(name string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tasks = append(r.Tasks, name)
}

func (r *Reporter) SubTask(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SubTasks = append(r.SubTasks, name)
}

func (r *Reporter) Worked(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Units += n
}

func (r *Reporter) Error(err error, fields map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, ReportedError{Err: err, Fields: fields})
}

func (r *Reporter) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished++
}

var _ types.Reporter = (*Reporter)(nil)
