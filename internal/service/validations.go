package service

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/feelday/moodlog/pkg/entity"
)

// Package for custom validations
var (
	validate *validator.Validate
	once     sync.Once
)

func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("check_in_type", func(fl validator.FieldLevel) bool {
			return entity.CheckInType(fl.Field().String()).Valid()
		})
	})
}
