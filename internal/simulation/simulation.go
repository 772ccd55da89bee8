// Package simulation drives an engine from a live, unbounded bar feed.
package simulation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	// StatusErrored is a stopped run whose last step failed
	StatusErrored Status = "errored"
)

// Observer receives one update per processed bar. It is called with the
// simulation lock held, so it must not call back into the simulation.
type Observer func(update types.Update)

type options struct {
	id            string
	logger        *logger.Logger
	clock         func() time.Time
	engineOptions []engine.Option
}

type Option func(*options)

// WithID fixes the simulation id instead of generating one.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger sets the logger used by the simulation and its engine.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithClock replaces time.Now for start and end stamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithEngineOptions forwards options to the engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.engineOptions = append(o.engineOptions, opts...)
	}
}

// Simulation owns an engine and serialises every access to it.
type Simulation struct {
	id        string
	config    engine.Config
	engine    *engine.Engine
	observer  Observer
	status    Status
	startTime time.Time
	endTime   time.Time
	lastErr   error
	clock     func() time.Time
	mu        sync.Mutex
	logger    *logger.Logger
}

// New builds an idle simulation. observer may be nil.
func New(config engine.Config, observer Observer, opts ...Option) (*Simulation, error) {
	o := options{
		logger: logger.NewNopLogger(),
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.id == "" {
		o.id = uuid.NewString()
	}

	log := o.logger.Named("simulation").With(zap.String("simulation_id", o.id))
	wrapped := &logger.Logger{Logger: log}

	e, err := engine.New(config, append([]engine.Option{engine.WithLogger(wrapped)}, o.engineOptions...)...)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		id:       o.id,
		config:   config,
		engine:   e,
		observer: observer,
		status:   StatusIdle,
		clock:    o.clock,
		mu:       sync.Mutex{},
		logger:   wrapped,
	}, nil
}

func (s *Simulation) ID() string {
	return s.id
}

// Config returns the config the simulation was built from.
func (s *Simulation) Config() engine.Config {
	return s.config
}

// Start begins accepting bars. Starting a running simulation does nothing;
// starting an errored or stopped one resumes it with its state intact.
func (s *Simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusRunning {
		return
	}

	if s.startTime.IsZero() {
		s.startTime = s.clock()
	}

	previous := s.status
	s.status = StatusRunning
	s.endTime = time.Time{}
	s.lastErr = nil

	s.logger.Info("Simulation started",
		zap.String("symbol", s.config.Symbol),
		zap.String("previous_status", string(previous)),
	)
}

// Process runs one engine step and notifies the observer. It is a no-op
// unless the simulation is running. A failed step is reported to the
// observer as an error update and leaves the simulation errored.
func (s *Simulation) Process(bar types.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return nil
	}

	update, err := s.engine.OnBar(bar)
	if err != nil {
		s.status = StatusErrored
		s.endTime = s.clock()
		s.lastErr = err

		s.logger.Error("Simulation step failed",
			zap.Time("bar_time", bar.Time),
			zap.Error(err),
		)
	}

	update.Result = s.resultLocked()

	if s.observer != nil {
		s.observer(update)
	}

	return err
}

// Stop stops accepting bars. The open position, if any, stays open.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRunning {
		return
	}

	s.status = StatusStopped
	s.endTime = s.clock()

	s.logger.Info("Simulation stopped",
		zap.Int("trades", len(s.engine.Result().Trades)),
	)
}

// Result returns a snapshot stamped with the run's wall-clock times.
func (s *Simulation) Result() types.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resultLocked()
}

func (s *Simulation) resultLocked() types.Result {
	result := s.engine.Result()
	result.ID = s.id
	result.StartTime = s.startTime
	result.EndTime = s.endTime

	return result
}

func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Err returns the error that moved the simulation to errored, if any.
func (s *Simulation) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}
