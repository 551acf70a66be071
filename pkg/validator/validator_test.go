package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type clubPayload struct {
	FirstName string `json:"firstname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Siret     string `json:"siret" validate:"omitempty,siret"`
}

func TestValidateStructSuccess(t *testing.T) {
	require.NoError(t, ValidateStruct(clubPayload{
		FirstName: "Zinedine",
		Email:     "coach@example.com",
		Siret:     "12345678901234",
	}))
}

func TestValidateStructFailuresUseJSONNames(t *testing.T) {
	err := ValidateStruct(clubPayload{Email: "invalid", Siret: "1234"})
	require.Error(t, err)

	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.ElementsMatch(t, []ValidationError{
		{Field: "firstname", Tag: "required"},
		{Field: "email", Tag: "email"},
		{Field: "siret", Tag: "siret", Param: "14"},
	}, []ValidationError(failures))
	require.Contains(t, failures.Error(), "siret failed on siret=14")
}

func TestSiretRejectsNonDigits(t *testing.T) {
	for _, siret := range []string{"1234567890123A", "-1234567890123", "1234567890.123", "123456789012345"} {
		require.Error(t, ValidateStruct(clubPayload{FirstName: "a", Email: "a@b.fr", Siret: siret}), siret)
	}
}

func TestValidateVar(t *testing.T) {
	require.NoError(t, ValidateVar("12345678901234", "required,siret"))

	err := ValidateVar("1234", "required,siret")
	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.Equal(t, []ValidationError{{Field: "value", Tag: "siret", Param: "14"}}, []ValidationError(failures))

	require.Error(t, ValidateVar("", "required,siret"))
}

func TestRegisterValidation(t *testing.T) {
	require.NoError(t, RegisterValidation("kdufoot", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "kdufoot"
	}))

	type custom struct {
		Value string `validate:"kdufoot"`
	}
	require.NoError(t, ValidateStruct(custom{Value: "kdufoot"}))
	require.Error(t, ValidateStruct(custom{Value: "other"}))
}

func TestRegisterStringRuleSkipsEmpty(t *testing.T) {
	require.NoError(t, RegisterStringRule("uppercase_code", func(v string) bool {
		return v == strings.ToUpper(v)
	}))

	type payload struct {
		Code  string   `json:"code" validate:"uppercase_code"`
		Codes []string `json:"codes" validate:"dive,uppercase_code"`
	}
	require.NoError(t, ValidateStruct(payload{}))
	require.NoError(t, ValidateStruct(payload{Code: "PRO", Codes: []string{"FREE"}}))

	err := ValidateStruct(payload{Codes: []string{"PRO", "ultime"}})
	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures, 1)
	require.Equal(t, "codes[1]", failures[0].Field)
}
