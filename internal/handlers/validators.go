package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Account codes follow the chart-of-accounts convention: a four digit
// numeric prefix, optionally followed by uppercase mnemonic segments
// (1000-CASH, 5900-CASH-OVER-SHORT).
var accountCodePattern = regexp.MustCompile(`^[0-9]{4}(-[A-Z0-9]+)*$`)

// registerCustomValidators hooks domain-specific rules into gin's binding
// validator so request structs can declare them in their binding tags.
func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("accountcode", validAccountCode)
	}
}

func validAccountCode(fl validator.FieldLevel) bool {
	return accountCodePattern.MatchString(fl.Field().String())
}
