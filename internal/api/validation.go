package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationMessage names the first offending field of a validator error,
// without the request struct's own name.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "required", "min":
		return fmt.Sprintf("%s is required", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
