package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"ministry_hub/internal/schedule"
)

const dateLayout = "2006-01-02"

var registerOnce sync.Once

// RegisterValidators adds the domain tags to gin's validator: clock ("HH:MM"),
// weekday, frequency and date ("2006-01-02").
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		tags := map[string]validator.Func{
			"clock": func(fl validator.FieldLevel) bool {
				return schedule.ValidClock(fl.Field().String())
			},
			"weekday": func(fl validator.FieldLevel) bool {
				return schedule.Weekday(fl.Field().String()).Valid()
			},
			"frequency": func(fl validator.FieldLevel) bool {
				return schedule.Frequency(fl.Field().String()).Valid()
			},
			"date": func(fl validator.FieldLevel) bool {
				_, perr := time.Parse(dateLayout, fl.Field().String())
				return perr == nil
			},
		}
		for tag, fn := range tags {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

// parseDate parses an optional date field already checked by the date tag.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
