package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Form field names as posted by the application page.
const (
	FieldFirstName  = "first-name"
	FieldLastName   = "last-name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCityState  = "city-state"
	FieldZipcode    = "zipcode"
	FieldGender     = "gender"
	FieldAge        = "age"
	FieldOccupation = "occupation"
	FieldBankName   = "bank-name"
	FieldBankNumber = "bank-number"
)

// NotAvailable stands in for optional fields the applicant left out.
const NotAvailable = "N/A"

var (
	ErrNoBody      = errors.New("no JSON body provided")
	ErrInvalidJSON = errors.New("invalid JSON format")
)

// Submission is the applicant's form payload for a single request.
type Submission map[string]string

// Get returns the raw value for field and whether it was sent.
func (s Submission) Get(field string) (string, bool) {
	v, ok := s[field]
	return v, ok
}

// Present reports whether field was sent with a non-blank value.
func (s Submission) Present(field string) bool {
	v, ok := s[field]
	return ok && strings.TrimSpace(v) != ""
}

// ValueOr returns the field value, or fallback when the field is absent or blank.
func (s Submission) ValueOr(field, fallback string) string {
	if !s.Present(field) {
		return fallback
	}
	return s[field]
}

// ParseSubmission decodes a JSON object into a Submission. Scalars are kept
// as their textual form; null members are treated as absent.
func ParseSubmission(body []byte) (Submission, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrNoBody
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidJSON)
	}

	sub := make(Submission, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			sub[key] = v
		case json.Number:
			sub[key] = v.String()
		case bool:
			sub[key] = strconv.FormatBool(v)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidJSON, key, err)
			}
			sub[key] = string(encoded)
		}
	}
	return sub, nil
}
