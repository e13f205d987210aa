package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// TagPresent fails for values that are empty once whitespace is trimmed.
	TagPresent = "present"
	// TagMinChars fails when a value has fewer non-whitespace characters than
	// its parameter.
	TagMinChars = "minchars"
	// TagMailbox fails for values that are not shaped like local@domain.tld.
	TagMailbox = "mailbox"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once

	mailboxPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		mustRegister(v, TagPresent, isPresent)
		mustRegister(v, TagMinChars, hasMinChars)
		mustRegister(v, TagMailbox, isMailbox)
		validatorInstance = v
	})
	return validatorInstance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func isPresent(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func hasMinChars(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return CountChars(fl.Field().String()) >= limit
}

func isMailbox(fl validator.FieldLevel) bool {
	return IsMailbox(fl.Field().String())
}

// CountChars counts the non-whitespace runes in value.
func CountChars(value string) int {
	count := 0
	for _, r := range value {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// IsMailbox reports whether value, ignoring surrounding whitespace, looks like
// local@domain.tld with at least one dot after the @.
func IsMailbox(value string) bool {
	return mailboxPattern.MatchString(strings.TrimSpace(value))
}

// failedTag runs the tag chain against value and returns the first tag that
// failed, or "" when the value passes.
func failedTag(value, tags string) (string, error) {
	if strings.TrimSpace(tags) == "" {
		return "", nil
	}
	err := getValidator().Var(value, tags)
	if err == nil {
		return "", nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Tag(), nil
	}
	return "", err
}
