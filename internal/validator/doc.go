// Package validator provides struct validation for sycobench.
//
// It wraps go-playground/validator with field names taken from json,
// mapstructure or yaml tags, and registers the "runmode" and "framing" tags.
//
//	if err := validator.Validate(cfg); err != nil {
//	    // err is a validator.ValidationErrors
//	}
package validator
