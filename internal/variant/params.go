package variant

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
)

var validate = validator.New()

// Decode overlays params onto target, which should already carry the
// documented defaults. Keys follow the yaml tags of target; numeric
// strings and ints are coerced, unknown keys are rejected.
func Decode(params map[string]any, target any) error {
	if len(params) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "failed to create parameter decoder", err)
	}

	if err := decoder.Decode(params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid parameters", err)
	}

	return nil
}

// Validate runs the struct's validate tags.
func Validate(target any) error {
	if err := validate.Struct(target); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// DecodeAndValidate is Decode followed by Validate.
func DecodeAndValidate(params map[string]any, target any) error {
	if err := Decode(params, target); err != nil {
		return err
	}

	return Validate(target)
}

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// SchemaOf returns a schema func for registration.
func SchemaOf[T any](t T) func() (string, error) {
	return func() (string, error) {
		return ToJSONSchema(t)
	}
}
