// internal/identity/document.go
package identity

import "strings"

// ValidCPF reports whether s is a well-formed CPF (Brazilian individual
// taxpayer id). Formatting characters are stripped before checking the
// two modulus-11 verification digits.
func ValidCPF(s string) bool {
	cpf := digitsOnly(s)
	if len(cpf) != 11 || allSame(cpf) {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(cpf[i]-'0') * (10 - i)
	}
	d1 := (sum * 10 % 11) % 10

	sum = 0
	for i := 0; i < 10; i++ {
		sum += int(cpf[i]-'0') * (11 - i)
	}
	d2 := (sum * 10 % 11) % 10

	return int(cpf[9]-'0') == d1 && int(cpf[10]-'0') == d2
}

// ValidCNPJ reports whether s is a well-formed CNPJ (Brazilian company
// taxpayer id).
func ValidCNPJ(s string) bool {
	cnpj := digitsOnly(s)
	if len(cnpj) != 14 || allSame(cnpj) {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum := 0
	for i, w := range weights1 {
		sum += int(cnpj[i]-'0') * w
	}
	d1 := 11 - sum%11
	if sum%11 < 2 {
		d1 = 0
	}

	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	sum = 0
	for i, w := range weights2 {
		sum += int(cnpj[i]-'0') * w
	}
	d2 := 11 - sum%11
	if sum%11 < 2 {
		d2 = 0
	}

	return int(cnpj[12]-'0') == d1 && int(cnpj[13]-'0') == d2
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
