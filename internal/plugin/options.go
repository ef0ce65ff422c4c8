package plugin

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeOptions decodes construction options into the struct pointed to by
// out using its `mapstructure` tags. Scalars are converted weakly so that
// "5" decodes into an int field. Unknown keys are an error.
func DecodeOptions(opts Options, out any) error {
	if len(opts) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("creating options decoder: %w", err)
	}

	if err := dec.Decode(map[string]any(opts)); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}

	return nil
}
