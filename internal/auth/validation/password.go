package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrMissingUppercase = errors.New("A senha deve conter ao menos uma letra maiúscula.")
	ErrMissingLowercase = errors.New("A senha deve conter ao menos uma letra minúscula.")
	ErrMissingNumber    = errors.New("A senha deve conter ao menos um número.")
	ErrMissingSpecial   = errors.New("A senha deve conter ao menos um caractere especial.")
	ErrConsecutiveChars = errors.New("A senha contém caracteres repetidos em sequência.")
	ErrContainsCPF      = errors.New("A senha não pode conter o CPF.")
)

// PasswordPolicy describes the rules a new password must satisfy.
// Only MinLength is enforced by default; the remaining rules are opt-in.
type PasswordPolicy struct {
	MinLength         int
	MaxLength         int
	RequireUppercase  bool
	RequireLowercase  bool
	RequireNumbers    bool
	RequireSpecial    bool
	MaxRepeatingChars int
	PreventCPF        bool
}

// DefaultPasswordPolicy requires six characters and nothing else.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength: 6,
		MaxLength: 128,
	}
}

type PasswordValidator struct {
	policy PasswordPolicy
}

func NewPasswordValidator(policy PasswordPolicy) *PasswordValidator {
	if policy.MinLength <= 0 {
		policy.MinLength = 6
	}
	if policy.MaxLength <= 0 {
		policy.MaxLength = 128
	}
	return &PasswordValidator{
		policy: policy,
	}
}

// MinLength is the minimum number of characters accepted.
func (v *PasswordValidator) MinLength() int {
	return v.policy.MinLength
}

// ValidatePassword checks password against the policy. cpf is the digits-only
// login key of the account, used when PreventCPF is set.
func (v *PasswordValidator) ValidatePassword(password string, cpf string) error {
	// Length is counted in characters, not bytes.
	n := utf8.RuneCountInString(password)
	if n < v.policy.MinLength {
		return fmt.Errorf("A senha deve ter no mínimo %d caracteres.", v.policy.MinLength)
	}
	if n > v.policy.MaxLength {
		return fmt.Errorf("A senha deve ter no máximo %d caracteres.", v.policy.MaxLength)
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasNumber  bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if v.policy.RequireUppercase && !hasUpper {
		return ErrMissingUppercase
	}
	if v.policy.RequireLowercase && !hasLower {
		return ErrMissingLowercase
	}
	if v.policy.RequireNumbers && !hasNumber {
		return ErrMissingNumber
	}
	if v.policy.RequireSpecial && !hasSpecial {
		return ErrMissingSpecial
	}

	if v.policy.MaxRepeatingChars > 0 {
		if err := v.checkRepeatingChars(password); err != nil {
			return err
		}
	}

	if v.policy.PreventCPF && len(cpf) >= 6 && strings.Contains(password, cpf) {
		return ErrContainsCPF
	}

	return nil
}

func (v *PasswordValidator) checkRepeatingChars(password string) error {
	var count int
	var lastChar rune

	for i, char := range password {
		if i == 0 {
			lastChar = char
			count = 1
			continue
		}

		if char == lastChar {
			count++
			if count > v.policy.MaxRepeatingChars {
				return ErrConsecutiveChars
			}
		} else {
			lastChar = char
			count = 1
		}
	}
	return nil
}
