package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/DhavalSuthar-24/arena/internal/match"
)

// Register adds the match-specific tags to v:
//
//	gametype  SOLO, DUO or SQUAD
//	mapname   ERANGEL, MIRAMAR, SANHOK or VIKENDI
//	duration  a positive Go duration string such as "2h"
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("gametype", func(fl validator.FieldLevel) bool {
		return match.ValidGameType(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("mapname", func(fl validator.FieldLevel) bool {
		return match.ValidMapName(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
}

// RegisterGinBindings installs the tags on gin's default validator.
func RegisterGinBindings() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return Register(v)
	}
	return nil
}
