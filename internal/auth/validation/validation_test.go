package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyMinLength(t *testing.T) {
	v := NewPasswordValidator(DefaultPasswordPolicy())

	assert.Error(t, v.ValidatePassword("12345", ""))
	assert.NoError(t, v.ValidatePassword("123456", ""))
	// Six characters, more than six bytes.
	assert.NoError(t, v.ValidatePassword("sãoção", ""))
	assert.Error(t, v.ValidatePassword("ãçõ", ""))
}

func TestOptInRules(t *testing.T) {
	v := NewPasswordValidator(PasswordPolicy{
		MinLength:         6,
		RequireUppercase:  true,
		RequireNumbers:    true,
		MaxRepeatingChars: 2,
		PreventCPF:        true,
	})

	assert.ErrorIs(t, v.ValidatePassword("abcdef1", ""), ErrMissingUppercase)
	assert.ErrorIs(t, v.ValidatePassword("Abcdefg", ""), ErrMissingNumber)
	assert.ErrorIs(t, v.ValidatePassword("Abbbcd1", ""), ErrConsecutiveChars)
	assert.ErrorIs(t, v.ValidatePassword("X12345678901", "12345678901"), ErrContainsCPF)
	assert.NoError(t, v.ValidatePassword("Abcdef1", "12345678901"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "12345678901", Digits("123.456.789-01"))
	assert.Equal(t, "", Digits("abc"))
}

func TestErrorsHelpers(t *testing.T) {
	errs := Errors{}
	errs.Required("nome", "  ")
	errs.MaxLen("estado", "SPX", 2)
	errs.Email("email", "not-an-email")
	errs.Email("vazio", "")
	errs.OneOf("status", "OUTRO", "ATIVO", "INATIVO")
	errs.MinLen("senha", "123", 6)

	assert.Len(t, errs, 5)
	assert.Contains(t, errs, "nome")
	assert.Contains(t, errs, "estado")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "status")
	assert.Contains(t, errs, "senha")
	assert.NotContains(t, errs, "vazio")

	assert.NoError(t, Errors{}.Err())
	assert.Error(t, errs.Err())
	assert.True(t, strings.HasPrefix(errs.Error(), "validation failed: email:"))
}

type loginBody struct {
	CPF string `json:"cpf"`
}

func (b *loginBody) Validate() Errors {
	errs := Errors{}
	errs.Required("cpf", b.CPF)
	return errs
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"cpf":"123"}`))
	var body loginBody
	require.NoError(t, DecodeAndValidate(r, &body))
	assert.Equal(t, "123", body.CPF)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	err := DecodeAndValidate(r, &loginBody{})
	var errs Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "body")

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	err = DecodeAndValidate(r, &loginBody{})
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "cpf")
}
