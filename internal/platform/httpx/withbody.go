package httpx

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	en2 "github.com/go-playground/validator/translations/en"
	"github.com/gofiber/fiber/v2"
	"gopkg.in/go-playground/validator.v9"
)

// DecodeHandlerFunc receives a struct decoded by WithBody before being
// invoked. Ex: json -> WithBody -> DecodeHandlerFunc.
type DecodeHandlerFunc func(p any, c *fiber.Ctx) error

type decoderHandler struct {
	handler      DecodeHandlerFunc
	structSource any
}

func newOfType(s any) any {
	t := reflect.TypeOf(s)
	v := reflect.New(t.Elem())

	return v.Interface()
}

// FiberHandlerFunc decodes the request body into a fresh instance of the
// struct type, rejects unknown fields, validates it, then calls the
// wrapped handler.
func (d *decoderHandler) FiberHandlerFunc(c *fiber.Ctx) error {
	s := newOfType(d.structSource)

	bodyBytes := c.Body()

	if err := json.Unmarshal(bodyBytes, s); err != nil {
		return BadRequest(c, "malformed_body", "request body is not valid JSON")
	}

	marshaled, err := json.Marshal(s)
	if err != nil {
		return BadRequest(c, "malformed_body", "request body could not be re-encoded")
	}

	var originalMap, marshaledMap map[string]any

	if err := json.Unmarshal(bodyBytes, &originalMap); err != nil {
		return BadRequest(c, "malformed_body", "request body is not a JSON object")
	}

	if err := json.Unmarshal(marshaled, &marshaledMap); err != nil {
		return BadRequest(c, "malformed_body", "request body could not be re-decoded")
	}

	var unknown []string

	for key := range originalMap {
		if _, ok := marshaledMap[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) > 0 {
		return BadRequest(c, "unknown_fields", "unrecognized fields: "+strings.Join(unknown, ", "))
	}

	if err := ValidateStruct(s); err != nil {
		return BadRequest(c, "validation_error", err.Error())
	}

	return d.handler(s, c)
}

// WithBody wraps a handler, providing it with a freshly decoded and
// validated instance of the type pointed to by s (a pointer used only as
// a type template, e.g. WithBody(new(CheckoutRequest), handler)).
func WithBody(s any, h DecodeHandlerFunc) fiber.Handler {
	d := &decoderHandler{handler: h, structSource: s}

	return d.FiberHandlerFunc
}

// ValidateStruct validates a struct against its `validate` tags.
func ValidateStruct(s any) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	if err := v.Struct(s); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var msgs []string
		for _, fe := range fieldErrs {
			msgs = append(msgs, fe.Translate(trans))
		}

		return fiber.NewError(fiber.StatusBadRequest, strings.Join(msgs, "; "))
	}

	return nil
}

func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	if err := en2.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v, trans
}
