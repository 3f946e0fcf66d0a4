// Package validation checks application submissions before anything is relayed.
//
// Rules are expressed as go-playground/validator tags and evaluated field by
// field in form order. Presence is checked first; format problems are only
// reported once every required field has been filled in.
package validation

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/navarrastar/application-relay/pkg/models"
)

// MinimumAge is the youngest applicant the form accepts.
const MinimumAge = 18

const (
	tagNonBlank = "nonblank"
	tagEmail    = "applicant_email"
	tagPhone    = "applicant_phone"
	tagAdult    = "applicant_adult"
)

const (
	MsgInvalidEmail = "Invalid email format."
	MsgInvalidPhone = "Invalid phone number format."
	MsgUnderage     = "You must be at least 18."
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s]{7,15}$`)
)

type rule struct {
	field string
	tags  string
}

// Validator applies the application form rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	rules    []rule
}

// Options selects the form variant being validated.
type Options struct {
	RequireBankNumber bool
}

// New builds a Validator with the custom tags registered.
func New(opts Options) *Validator {
	v := validator.New()
	mustRegister(v, tagNonBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, tagEmail, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, tagPhone, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, tagAdult, func(fl validator.FieldLevel) bool {
		// Ages are arbitrary-precision integers: digits beyond int64 are still an adult.
		age, ok := new(big.Int).SetString(strings.TrimSpace(fl.Field().String()), 10)
		return ok && age.Cmp(big.NewInt(MinimumAge)) >= 0
	})

	rules := []rule{
		{models.FieldFirstName, tagNonBlank},
		{models.FieldLastName, tagNonBlank},
		{models.FieldEmail, tagNonBlank + "," + tagEmail},
		{models.FieldPhone, tagNonBlank + "," + tagPhone},
		{models.FieldAddress, tagNonBlank},
		{models.FieldCityState, tagNonBlank},
		{models.FieldZipcode, tagNonBlank},
		{models.FieldGender, tagNonBlank},
		{models.FieldAge, tagNonBlank + "," + tagAdult},
		{models.FieldBankName, tagNonBlank},
	}
	if opts.RequireBankNumber {
		rules = append(rules, rule{models.FieldBankNumber, tagNonBlank})
	}

	return &Validator{validate: v, rules: rules}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// RequiredFields lists the fields that must be filled in, in form order.
func (v *Validator) RequiredFields() []string {
	fields := make([]string, 0, len(v.rules))
	for _, r := range v.rules {
		fields = append(fields, r.field)
	}
	return fields
}

// Validate returns the human readable problems with sub, or nil when it is
// acceptable. Missing fields are reported alone; format errors are only
// collected when nothing is missing.
func (v *Validator) Validate(sub models.Submission) []string {
	var missing, invalid []string

	for _, r := range v.rules {
		value, _ := sub.Get(r.field)
		tag, failed := v.check(value, r.tags)
		if !failed {
			continue
		}
		if tag == tagNonBlank {
			missing = append(missing, Label(r.field)+" is required.")
			continue
		}
		invalid = append(invalid, message(tag))
	}

	if len(missing) > 0 {
		return missing
	}
	return invalid
}

// check runs tags against value and reports the first tag that failed.
func (v *Validator) check(value, tags string) (string, bool) {
	err := v.validate.Var(value, tags)
	if err == nil {
		return "", false
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag(), true
	}
	// InvalidValidationError only happens with a programming mistake in the tags.
	panic(fmt.Sprintf("validation: evaluating %q: %v", tags, err))
}

func message(tag string) string {
	switch tag {
	case tagEmail:
		return MsgInvalidEmail
	case tagPhone:
		return MsgInvalidPhone
	case tagAdult:
		return MsgUnderage
	default:
		return "Invalid value."
	}
}

// Label turns a form field name into the title-cased name shown to applicants,
// e.g. "city-state" becomes "City State".
func Label(field string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(field)
	return cases.Title(language.English).String(words)
}

// Join renders validation messages as the single string returned to callers.
func Join(messages []string) string {
	return strings.Join(messages, " | ")
}
