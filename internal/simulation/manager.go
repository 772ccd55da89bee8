package simulation

import (
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-consensus/internal/engine"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"go.uber.org/zap"
)

// Summary is the listing view of a simulation.
type Summary struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Interval       string    `json:"interval"`
	Status         Status    `json:"status"`
	BarsProcessed  int       `json:"bars_processed"`
	Trades         int       `json:"trades"`
	CurrentCapital float64   `json:"current_capital"`
	HasPosition    bool      `json:"has_position"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// Manager keys simulations by id.
type Manager struct {
	simulations map[string]*Simulation
	options     []Option
	mu          sync.RWMutex
	logger      *logger.Logger
}

// NewManager creates an empty manager. opts are applied to every
// simulation it creates.
func NewManager(log *logger.Logger, opts ...Option) *Manager {
	return &Manager{
		simulations: make(map[string]*Simulation),
		options:     append([]Option{WithLogger(log)}, opts...),
		mu:          sync.RWMutex{},
		logger:      log.Named("simulation_manager"),
	}
}

// Create builds and registers an idle simulation.
func (m *Manager) Create(config engine.Config, observer Observer, opts ...Option) (*Simulation, error) {
	sim, err := New(config, observer, append(append([]Option(nil), m.options...), opts...)...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.simulations[sim.ID()]; exists {
		return nil, errors.Newf(errors.ErrCodeInvalidState, "simulation %s already exists", sim.ID())
	}

	m.simulations[sim.ID()] = sim

	m.logger.Info("Simulation created",
		zap.String("simulation_id", sim.ID()),
		zap.String("symbol", config.Symbol),
	)

	return sim, nil
}

// Get returns the simulation with id.
func (m *Manager) Get(id string) (*Simulation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sim, exists := m.simulations[id]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeSimulationNotFound, "simulation %s not found", id)
	}

	return sim, nil
}

func (m *Manager) Start(id string) error {
	sim, err := m.Get(id)
	if err != nil {
		return err
	}

	sim.Start()

	return nil
}

func (m *Manager) Stop(id string) error {
	sim, err := m.Get(id)
	if err != nil {
		return err
	}

	sim.Stop()

	return nil
}

// Process feeds bar to the simulation with id.
func (m *Manager) Process(id string, bar types.Bar) error {
	sim, err := m.Get(id)
	if err != nil {
		return err
	}

	return sim.Process(bar)
}

// Dispatch feeds bar to every running simulation trading its symbol and
// returns the ids whose step failed.
func (m *Manager) Dispatch(bar types.Bar) map[string]error {
	failed := make(map[string]error)

	for _, sim := range m.snapshot() {
		if sim.Config().Symbol != bar.Symbol {
			continue
		}

		if err := sim.Process(bar); err != nil {
			failed[sim.ID()] = err
		}
	}

	return failed
}

// Remove stops and forgets the simulation with id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	sim, exists := m.simulations[id]
	delete(m.simulations, id)
	m.mu.Unlock()

	if !exists {
		return errors.Newf(errors.ErrCodeSimulationNotFound, "simulation %s not found", id)
	}

	sim.Stop()

	m.logger.Info("Simulation removed", zap.String("simulation_id", id))

	return nil
}

// List summarises every simulation, ordered by id.
func (m *Manager) List() []Summary {
	sims := m.snapshot()
	summaries := make([]Summary, 0, len(sims))

	for _, sim := range sims {
		result := sim.Result()
		summaries = append(summaries, Summary{
			ID:             sim.ID(),
			Symbol:         result.Symbol,
			Interval:       result.Interval,
			Status:         sim.Status(),
			BarsProcessed:  result.BarsProcessed,
			Trades:         len(result.Trades),
			CurrentCapital: result.CurrentCapital,
			HasPosition:    result.OpenPosition != nil,
			StartTime:      result.StartTime,
			EndTime:        result.EndTime,
		})
	}

	return summaries
}

// Results returns a result snapshot per simulation id.
func (m *Manager) Results() map[string]types.Result {
	sims := m.snapshot()
	results := make(map[string]types.Result, len(sims))

	for _, sim := range sims {
		results[sim.ID()] = sim.Result()
	}

	return results
}

// StopAll stops every simulation.
func (m *Manager) StopAll() {
	for _, sim := range m.snapshot() {
		sim.Stop()
	}
}

// snapshot copies the simulations out so that no simulation lock is taken
// under the manager lock.
func (m *Manager) snapshot() []*Simulation {
	m.mu.RLock()
	sims := make([]*Simulation, 0, len(m.simulations))

	for _, sim := range m.simulations {
		sims = append(sims, sim)
	}
	m.mu.RUnlock()

	sort.Slice(sims, func(i, j int) bool {
		return sims[i].ID() < sims[j].ID()
	})

	return sims
}
