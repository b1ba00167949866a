package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/birlikkoshan/todo-api/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidation registers the custom tags used by the request DTOs on gin's
// validator. Safe to call more than once. It panics if a tag cannot be
// registered, since every request using that tag would fail.
func SetupValidation() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		err := errors.Join(
			v.RegisterValidation("intmin", intBound(func(n, bound int) bool { return n >= bound })),
			v.RegisterValidation("intmax", intBound(func(n, bound int) bool { return n <= bound })),
			v.RegisterValidation("sortorder", func(fl validator.FieldLevel) bool {
				s := strings.ToUpper(fl.Field().String())
				return s == "ASC" || s == "DESC"
			}),
			v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
				_, err := dto.ParseDate(fl.Field().String())
				return err == nil
			}),
		)
		if err != nil {
			panic(fmt.Sprintf("register validators: %v", err))
		}
	})
}

// bindJSON is ShouldBindJSON that keeps going after a JSON type mismatch: the
// rest of the body is still validated so all violations are reported at once.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return err
	}
	if verr := binding.Validator.ValidateStruct(obj); verr != nil {
		return errors.Join(err, verr)
	}
	return err
}

// fieldName reports fields by their JSON or query name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func intBound(ok func(n, bound int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		bound, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		n, err := strconv.Atoi(fl.Field().String())
		return err == nil && ok(n, bound)
	}
}

// bindingDetails turns a bind error into per-field details. All violations
// are reported, not only the first.
func bindingDetails(err error) []dto.FieldError {
	var out []dto.FieldError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		out = append(out, dto.FieldError{Field: typeErr.Field, Message: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type))})
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			// a mistyped field was left zero; its type error already covers it
			if typeErr != nil && fe.Field() == typeErr.Field {
				continue
			}
			out = append(out, dto.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	}
	if len(out) > 0 {
		return out
	}
	if errors.Is(err, io.EOF) {
		return []dto.FieldError{{Field: "body", Message: "request body is required"}}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []dto.FieldError{{Field: "body", Message: "request body must be valid JSON"}}
	}
	return []dto.FieldError{{Field: "body", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "number":
		return f + " must be an integer"
	case "intmin":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, fe.Param())
	case "intmax":
		return fmt.Sprintf("%s must be less than or equal to %s", f, fe.Param())
	case "sortorder":
		return f + " must be one of [ASC, DESC]"
	case "isodate":
		return f + " must be an ISO 8601 date"
	}
	return fmt.Sprintf("%s failed on %s", f, fe.Tag())
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	case reflect.Ptr:
		return jsonKind(t.Elem())
	}
	return t.String()
}
