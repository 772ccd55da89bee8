package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-consensus/internal/commission"
	"github.com/rxtech-lab/argo-consensus/internal/risk"
	"github.com/rxtech-lab/argo-consensus/internal/strategy"
	"github.com/rxtech-lab/argo-consensus/internal/variant"
	"github.com/rxtech-lab/argo-consensus/internal/version"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VariantConfig selects a registered variant and its parameters.
type VariantConfig struct {
	Name   string         `yaml:"name" json:"name" jsonschema:"title=Name,description=Registered variant name" validate:"required"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params,description=Variant parameters; omitted keys keep their defaults"`
}

// Config describes one engine instance: an instrument, the providers that
// vote on it, the risk policy and the fee model.
type Config struct {
	// Version pins the engine version the config was written for
	Version        string            `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Engine version the config targets"`
	Symbol         string            `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Instrument traded,example=BTCUSDT" validate:"required"`
	Interval       string            `yaml:"interval,omitempty" json:"interval,omitempty" jsonschema:"title=Interval,description=Bar interval,example=1m"`
	InitialCapital float64           `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in quote currency,minimum=0" validate:"gt=0"`
	Strategies     []VariantConfig   `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies,description=Signal providers voting on each bar" validate:"required,min=1,dive"`
	Risk           VariantConfig     `yaml:"risk" json:"risk" jsonschema:"title=Risk,description=Risk policy"`
	Commission     commission.Config `yaml:"commission,omitempty" json:"commission,omitempty" jsonschema:"title=Commission,description=Fee model"`
	// MaxWindow caps the bar history handed to providers, 0 keeps everything
	MaxWindow int `yaml:"max_window,omitempty" json:"max_window,omitempty" jsonschema:"title=Max Window,description=Bars retained for evaluation; 0 is unbounded,minimum=0" validate:"gte=0"`
}

// DefaultConfig returns a runnable single-provider config for symbol.
func DefaultConfig(symbol string) Config {
	return Config{
		Version:        "",
		Symbol:         symbol,
		Interval:       "1m",
		InitialCapital: 10000,
		Strategies:     []VariantConfig{{Name: strategy.NameRSI}},
		Risk:           VariantConfig{Name: risk.NameFixed},
		Commission:     commission.Config{Broker: commission.BrokerZero},
		MaxWindow:      0,
	}
}

// Validate checks field rules and version compatibility. Variant names and
// parameters are checked when the engine builds them.
func (c Config) Validate() error {
	if err := variant.Validate(c); err != nil {
		return err
	}

	return version.CheckCompatibility(version.GetVersion(), c.Version)
}

// LoadConfig reads a YAML or JSON config, chosen by file extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes data as JSON when ext is ".json" and as YAML otherwise.
func ParseConfig(data []byte, ext string) (Config, error) {
	var config Config

	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &config); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse json config", err)
		}

		return config, nil
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse yaml config", err)
	}

	return config, nil
}

// ConfigSchema generates the JSON schema of Config.
func ConfigSchema() (string, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(commission.Broker("")) {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "argo-consensus-config"
	schema.Description = "Configuration schema for the consensus trading engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(schemaBytes), nil
}
