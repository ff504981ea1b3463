package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tripxl/service-booking/internal/domain/route"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the routing tags to gin's request validator:
// travel_mode accepts a known travel mode and avoid a known avoid feature.
// It must succeed before any route using these tags is served.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerValidators(binding.Validator.Engine())
	})
	return registerErr
}

func registerValidators(engine interface{}) error {
	v, ok := engine.(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not a go-playground validator")
	}
	if err := v.RegisterValidation("travel_mode", func(fl validator.FieldLevel) bool {
		return route.TravelMode(fl.Field().String()).IsValid()
	}); err != nil {
		return fmt.Errorf("failed to register travel_mode validator: %w", err)
	}
	if err := v.RegisterValidation("avoid", func(fl validator.FieldLevel) bool {
		return route.Avoid(fl.Field().String()).IsValid()
	}); err != nil {
		return fmt.Errorf("failed to register avoid validator: %w", err)
	}
	return nil
}
