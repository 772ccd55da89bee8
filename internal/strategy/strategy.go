// Package strategy implements signal providers: pure functions of a bar
// window that recommend a direction and may ask to exit an open position.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-consensus/internal/indicator"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
)

// VolatilityPeriod is the ATR period used for the volatility estimate
// attached to every signal.
const VolatilityPeriod = 14

const (
	NameRSI       = "rsi"
	NameBollinger = "bollinger"
	NameMACD      = "macd"
)

// Provider evaluates a bar window into a signal. Parameters are bound and
// validated at construction, so Evaluate depends on the window alone.
type Provider interface {
	// Name returns the registered variant name
	Name() string
	// WarmupPeriod is the minimum window length for a non-neutral signal
	WarmupPeriod() int
	// Evaluate computes the signal for the last bar of window
	Evaluate(window []types.Bar) (types.Signal, error)
}

// Registry maps strategy names to constructors.
type Registry = variant.Registry[Provider]

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return variant.NewRegistry[Provider]("strategy")
}

// DefaultRegistry returns a registry carrying the built-in providers.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	// names are distinct, registration cannot fail
	_ = registry.Register(NameRSI, constructor(NewRSI), variant.SchemaOf(DefaultRSIConfig()))
	_ = registry.Register(NameBollinger, constructor(NewBollinger), variant.SchemaOf(DefaultBollingerConfig()))
	_ = registry.Register(NameMACD, constructor(NewMACD), variant.SchemaOf(DefaultMACDConfig()))

	return registry
}

// constructor erases a concrete constructor to the registry signature
// without leaking typed nils.
func constructor[T Provider](build func(map[string]any) (T, error)) variant.Constructor[Provider] {
	return func(params map[string]any) (Provider, error) {
		provider, err := build(params)
		if err != nil {
			return nil, err
		}

		return provider, nil
	}
}

// baseSignal fills the fields every provider reports for the last bar.
func baseSignal(name string, window []types.Bar) types.Signal {
	signal := types.NeutralSignal(name, window, "")
	last := window[len(window)-1]
	signal.EntryPrice = optional.Some(last.Close)

	if atr, err := indicator.ATR(window, VolatilityPeriod); err == nil && atr > 0 {
		signal.Volatility = optional.Some(atr)
	}

	return signal
}
