package server

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength       = 20
	maxPredictionLength = 200
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("playername", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("predictiontext", func(fl validator.FieldLevel) bool {
			_, err := validatePredictionText(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

func validateRequest(req any) error {
	if err := requestValidator().Struct(req); err != nil {
		return errInvalid("invalid request payload")
	}
	return nil
}

func validateName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", errInvalid("name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return "", errInvalid("name must be %d characters or fewer", maxNameLength)
	}
	return trimmed, nil
}

func validatePredictionText(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", errInvalid("prediction text is required")
	}
	if utf8.RuneCountInString(trimmed) > maxPredictionLength {
		return "", errInvalid("prediction must be %d characters or fewer", maxPredictionLength)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
