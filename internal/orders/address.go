package orders

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"mizora-service/internal/apperr"
)

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,max=100"`
	Address    string `json:"address" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,postalcode_loose"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone,omitempty" validate:"max=30"`
}

var postalCodeRe = regexp.MustCompile(`^[A-Za-z0-9\s-]{3,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("postalcode_loose", func(fl validator.FieldLevel) bool {
		return postalCodeRe.MatchString(fl.Field().String())
	})
	return v
}

// Sanitize trims every field and caps it at its maximum length.
func (a ShippingAddress) Sanitize() ShippingAddress {
	return ShippingAddress{
		FullName:   clip(a.FullName, 100),
		Address:    clip(a.Address, 200),
		City:       clip(a.City, 100),
		State:      clip(a.State, 100),
		PostalCode: clip(a.PostalCode, 20),
		Country:    clip(a.Country, 100),
		Phone:      clip(a.Phone, 30),
	}
}

// Validate checks a sanitized address.
func (a ShippingAddress) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		vErr := vErrs[0]
		switch vErr.Tag() {
		case "required":
			return apperr.Validation("%s is required", lowerFirst(vErr.Field()))
		case "postalcode_loose":
			return apperr.Validation("Invalid postal code format")
		default:
			return apperr.Validation("%s is invalid", lowerFirst(vErr.Field()))
		}
	}
	return apperr.Validation("invalid shipping address")
}

// CountryCode maps a free-form country to an ISO 3166 alpha-2 code.
func (a ShippingAddress) CountryCode() string {
	if code, ok := countryCodes[strings.ToLower(strings.TrimSpace(a.Country))]; ok {
		return code
	}
	c := strings.ToUpper(strings.TrimSpace(a.Country))
	if utf8.RuneCountInString(c) > 2 {
		return string([]rune(c)[:2])
	}
	return c
}

var countryCodes = map[string]string{
	"united states": "US", "usa": "US", "us": "US",
	"canada": "CA", "ca": "CA",
	"united kingdom": "GB", "uk": "GB", "gb": "GB",
	"australia": "AU", "au": "AU",
	"germany": "DE", "de": "DE",
	"france": "FR", "fr": "FR",
	"japan": "JP", "jp": "JP",
	"india": "IN", "in": "IN",
	"china": "CN", "cn": "CN",
	"brazil": "BR", "br": "BR",
	"mexico": "MX", "mx": "MX",
	"spain": "ES", "es": "ES",
	"italy": "IT", "it": "IT",
	"netherlands": "NL", "nl": "NL",
	"singapore": "SG", "sg": "SG",
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
