// Package validation はリクエスト入力の検証を行い、フィールド単位のエラー一覧を返す。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/minilink/internal/model"
)

// Validator はgo-playground/validatorのラッパー。
// 生成後は並行に使用できる。
type Validator struct {
	validate *validator.Validate
}

// New はValidatorを生成する。
// エラーのフィールド名にはjsonタグの名前を使用する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// maxbytes はUTF-8のバイト長の上限を検証する（bcryptは72バイトまでしか扱えない）。
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	return &Validator{validate: v}
}

// Struct は構造体を検証し、違反したフィールドの一覧を返す。違反がなければnilを返す。
func (v *Validator) Struct(s any) []model.FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []model.FieldError{{Message: err.Error()}}
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, model.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return fields
}

// Var は単一の値をタグで検証する。違反があればfieldを名前とするFieldErrorを返す。
func (v *Validator) Var(field string, value any, tag string) *model.FieldError {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.FieldError{Field: field, Message: err.Error()}
	}
	return &model.FieldError{Field: field, Message: messageFor(field, verrs[0])}
}

func message(fe validator.FieldError) string {
	return messageFor(fe.Field(), fe)
}

func messageFor(field string, fe validator.FieldError) string {
	label := displayName(field)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please include a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// displayName はフィールド名の先頭を大文字にしてメッセージ用の表示名にする。
func displayName(field string) string {
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
