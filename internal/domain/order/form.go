package order

import (
	"regexp"
	"sort"
	"strings"
)

// maxFieldLen mirrors the catalog-wide column cap for buyer contact fields.
const maxFieldLen = 254

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Form carries buyer-supplied order fields prior to validation. Comment is
// the only optional field.
type Form struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Comment   string `json:"comment"`
}

// FieldErrors maps form field names to validation messages. It implements
// error so a failed validation can travel through the checkout result.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid order form fields: " + strings.Join(fields, ", ")
}

// Validate normalizes the form in place and checks every field. It returns
// nil when the form is valid; otherwise the full field-level error set.
func (f *Form) Validate() FieldErrors {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)

	errs := FieldErrors{}
	checkName(errs, "first_name", f.FirstName)
	checkName(errs, "last_name", f.LastName)

	switch {
	case f.Email == "":
		errs["email"] = "required"
	case len(f.Email) > maxFieldLen:
		errs["email"] = "too long"
	case !emailPattern.MatchString(f.Email):
		errs["email"] = "invalid email address"
	}

	if f.Phone == "" {
		errs["phone"] = "required"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkName(errs FieldErrors, field, value string) {
	switch {
	case value == "":
		errs[field] = "required"
	case len(value) > maxFieldLen:
		errs[field] = "too long"
	}
}
