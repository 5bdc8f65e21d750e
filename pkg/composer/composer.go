// Package composer copies the content exported by the components of a
// composite item into the composer's target folder, recording who added,
// updated or removed each path.
//
// A pass runs Collecting, Merging, Applying and GarbageCollecting in that
// order. Resource failures are reported and skipped; structural failures
// abort the pass. Only one pass or clean runs at a time per Composer.
package composer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/exporter"
	"github.com/arthur-debert/copyfold/pkg/filesystem"
	"github.com/arthur-debert/copyfold/pkg/logging"
	"github.com/arthur-debert/copyfold/pkg/report"
	"github.com/arthur-debert/copyfold/pkg/target"
	"github.com/arthur-debert/copyfold/pkg/types"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// State is the phase a pass is in.
type State int32

const (
	StateIdle State = iota
	StateCollecting
	StateMerging
	StateApplying
	StateGarbageCollecting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateMerging:
		return "merging"
	case StateApplying:
		return "applying"
	case StateGarbageCollecting:
		return "garbage-collecting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Options configures a Composer.
type Options struct {
	// Name identifies the composer below the composite's state folder.
	Name      string
	Composite types.ItemID
	// ProjectRoot is the composite's folder; labels and Target are relative
	// to it.
	ProjectRoot string
	// StateRoot defaults to ProjectRoot/.copyfold.
	StateRoot     string
	Target        string
	ExporterTypes []string
	// ReadOnly makes copied files read-only.
	ReadOnly bool

	FS       types.FS
	Model    types.ItemModel
	Registry *exporter.Registry
	Reporter types.Reporter
	Clock    clockwork.Clock
	Logger   zerolog.Logger
}

// Result summarises a pass.
type Result struct {
	PassID string
	// Applied counts nodes whose resource and record were both updated.
	Applied int
	// Failed counts resource operations and exporters that failed.
	Failed int
	// Collected counts records removed by garbage collection.
	Collected int
	Duration  time.Duration
}

// Composer synchronises one target folder.
type Composer struct {
	opts   Options
	fs     types.FS
	logger zerolog.Logger

	mu    sync.Mutex
	state atomic.Int32

	// afterPhase1 runs between the two relocation phases.
	afterPhase1 func() error
}

// New validates opts and returns a Composer.
func New(opts Options) (*Composer, error) {
	if opts.Name == "" || opts.Composite == "" || opts.ProjectRoot == "" {
		return nil, errors.New(errors.ErrMissingArgument, "composer needs a name, a composite and a project root")
	}
	if opts.Model == nil || opts.Registry == nil {
		return nil, errors.New(errors.ErrMissingArgument, "composer needs an item model and an exporter registry")
	}
	if len(opts.ExporterTypes) == 0 {
		return nil, errors.Newf(errors.ErrConfigValid, "composer %s has no exporter types", opts.Name)
	}
	if opts.FS == nil {
		opts.FS = filesystem.NewOS()
	}
	if opts.Reporter == nil {
		opts.Reporter = report.Nop{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("composer")
	}
	return &Composer{
		opts:   opts,
		fs:     opts.FS,
		logger: logger.With().Str("composer", opts.Name).Logger(),
	}, nil
}

// Name returns the composer name.
func (c *Composer) Name() string {
	return c.opts.Name
}

// State returns the phase of the running pass, StateDone after a pass and
// StateIdle before the first one.
func (c *Composer) State() State {
	return State(c.state.Load())
}

func (c *Composer) setState(s State) {
	c.state.Store(int32(s))
	c.logger.Trace().Str("state", s.String()).Msg("Pass state")
}

func (c *Composer) targetOptions() target.Options {
	return target.Options{
		ProjectRoot: c.opts.ProjectRoot,
		StateRoot:   c.opts.StateRoot,
		Composite:   c.opts.Composite,
		Composer:    c.opts.Name,
		TargetPath:  c.opts.Target,
		Clock:       c.opts.Clock,
	}
}

func (c *Composer) openTarget() (*target.Target, error) {
	return target.Open(c.fs, c.targetOptions())
}

// Target opens the composer's target for inspection. The caller closes it.
func (c *Composer) Target() (*target.Target, error) {
	return c.openTarget()
}
