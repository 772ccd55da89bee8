// Package commission models the fees charged when a position is opened or
// closed.
package commission

import "github.com/rxtech-lab/argo-consensus/pkg/errors"

type Fee interface {
	// Calculate returns the fee, in quote currency, for filling quantity at price
	Calculate(quantity, price float64) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerPercentage        Broker = "percentage"
	BrokerZero              Broker = "zero_commission"
)

// DefaultRate is the percentage broker's rate when none is configured.
const DefaultRate = 0.001

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerPercentage,
	BrokerZero,
}

// Config selects a broker. Rate only applies to the percentage broker.
type Config struct {
	Broker Broker  `yaml:"broker" json:"broker" jsonschema:"title=Broker,enum=interactive_broker,enum=percentage,enum=zero_commission,default=zero_commission" validate:"omitempty,oneof=interactive_broker percentage zero_commission"`
	Rate   float64 `yaml:"rate" json:"rate" jsonschema:"title=Rate,description=Fraction of notional charged per fill,default=0.001" validate:"gte=0,lt=1"`
}

// New returns the fee model for config. An empty broker charges nothing.
func New(config Config) (Fee, error) {
	switch config.Broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBroker(), nil
	case BrokerPercentage:
		rate := config.Rate
		if rate == 0 {
			rate = DefaultRate
		}

		return NewPercentage(rate), nil
	case BrokerZero, "":
		return NewZero(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownVariant, "unknown broker: %s", config.Broker)
	}
}
