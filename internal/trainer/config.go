package trainer

import (
	"time"

	"github.com/rs/zerolog"

	"mtexp/internal/config"
	"mtexp/internal/runstore"
)

// Defaults applied when corresponding Config fields are unset.
const (
	// examples per gradient chunk; fixed so the reduction order never
	// depends on the worker count
	defaultChunkSize = 8
)

// Config encapsulates everything a Runner needs.
type Config struct {
	Run config.RunConfig
	// Store receives the run manifest. Nil opens Run.StateDir.
	Store *runstore.Store
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Events defaults to dropping events.
	Events EventPublisher
	// Now defaults to time.Now.
	Now func() time.Time
	// ProbeAccelerator reports a detected accelerator, "" when none. Defaults
	// to looking for nvidia-smi and /dev/nvidia0.
	ProbeAccelerator func() string
	// ChunkSize is the number of examples per gradient chunk.
	ChunkSize int
}

// NewWithConfig constructs a Runner from Config.
func NewWithConfig(cfg Config) *Runner {
	r := &Runner{
		cfg:   cfg.Run,
		store: cfg.Store,
		pub:   cfg.Events,
		now:   cfg.Now,
		probe: cfg.ProbeAccelerator,
		chunk: cfg.ChunkSize,
	}
	if cfg.Logger != nil {
		r.log = *cfg.Logger
	} else {
		r.log = zerolog.Nop()
	}
	if r.pub == nil {
		r.pub = noopPublisher{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.probe == nil {
		r.probe = probeAccelerator
	}
	if r.chunk <= 0 {
		r.chunk = defaultChunkSize
	}
	return r
}

// New returns a Runner for cfg with package defaults.
func New(cfg config.RunConfig) *Runner {
	return NewWithConfig(Config{Run: cfg})
}
