package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"solveit/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags used in dto binding rules to gin's validator.
// complaint_category is strict here even though Submit tolerates unknown categories.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		rules := map[string]validator.Func{
			"complaint_category": func(fl validator.FieldLevel) bool {
				_, ok := model.ParseCategory(fl.Field().String())
				return ok
			},
			"complaint_priority": func(fl validator.FieldLevel) bool {
				_, ok := model.ParsePriority(fl.Field().String())
				return ok
			},
			"complaint_status": func(fl validator.FieldLevel) bool {
				_, ok := model.ParseStatus(fl.Field().String())
				return ok
			},
			"staff_rank": func(fl validator.FieldLevel) bool {
				_, ok := model.ParseRank(fl.Field().String())
				return ok
			},
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}
