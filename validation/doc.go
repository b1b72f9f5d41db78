// Package validation checks configuration structs and command arguments.
//
// Struct tag validation (go-playground/validator) is used for the
// application config; the programmatic Validator collects errors for CLI
// flags and graph parameters.
//
//	type EngineConfig struct {
//	    SortChunkSize int `mapstructure:"sort_chunk_size" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
//	v := validation.New()
//	v.Required("input", input).Min("top", top, 1)
//	if err := v.Validate(); err != nil { ... }
package validation
