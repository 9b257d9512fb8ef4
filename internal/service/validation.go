package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/th"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ValidationError reports draft fields that block a submission. Message is
// the first failing field's text, shown inline by the page.
type ValidationError struct {
	Message string
	Fields  map[string]string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a single field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

// IsValidationError reports whether err carries field messages.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

var thaiTagMessages = map[string]string{
	"required": "กรุณากรอก {0}",
	"min":      "{0} ต้องมีอย่างน้อย {1} รายการ",
	"max":      "{0} มีได้ไม่เกิน {1} รายการ",
	"unique":   "{0} ต้องไม่ซ้ำกัน",
	"url":      "{0} ต้องเป็น URL ที่ถูกต้อง",
	"oneof":    "{0} ต้องเป็นหนึ่งใน [{1}]",
	"datetime": "{0} ต้องอยู่ในรูปแบบ {1}",
}

// per field overrides, keyed "<json field>.<tag>"
var fieldMessages = map[string]string{
	"subject.required":         "กรุณาเลือกวิชา",
	"assignmentTitle.required": "กรุณากรอกหัวข้องาน",
	"link.url":                 "กรุณากรอกลิงก์ให้ถูกต้อง (เช่น https://...)",
	"members.min":              "กรุณาเพิ่มสมาชิกอย่างน้อย 1 คน",
	"members.max":              "เพิ่มสมาชิกได้สูงสุด 5 คน",
	"members.unique":           "รายชื่อนี้ถูกเพิ่มไปแล้ว",
	"level.oneof":              "ระดับชั้นต้องเป็น ปวช. หรือ ปวส.",
	"topic.required":           "กรุณากรอกหัวข้อการสั่งงาน",
	"dueDate.required":         "กรุณาเลือกวันกำหนดส่ง",
	"dueDate.datetime":         "วันกำหนดส่งต้องอยู่ในรูปแบบ YYYY-MM-DD",
}

// Validator checks drafts and renders failures in Thai.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator configures validate with JSON field names and Thai messages.
func NewValidator(validate *validator.Validate) *Validator {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	locale := th.New()
	uni := ut.New(locale, locale)
	translator, _ := uni.GetTranslator(locale.Locale())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, text := range thaiTagMessages {
		registerTranslation(validate, translator, tag, text)
	}

	return &Validator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field(), fe.Param())
			return s
		},
	)
}

// Struct validates value. Field failures come back as *ValidationError.
func (v *Validator) Struct(value interface{}) error {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := &ValidationError{Fields: make(map[string]string, len(fieldErrors))}
	for _, fe := range fieldErrors {
		message := v.message(fe)
		if _, seen := result.Fields[fe.Field()]; !seen {
			result.Fields[fe.Field()] = message
		}
		if result.Message == "" {
			result.Message = message
		}
	}
	return result
}

func (v *Validator) message(fe validator.FieldError) string {
	if text, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return text
	}
	return fe.Translate(v.translator)
}
