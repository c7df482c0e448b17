package afip

import (
	"fmt"
	"unicode"
)

// pesos para el dígito verificador de CUIT/CUIL (módulo 11), aplicados a los 10 primeros dígitos.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateCUIT valida que la CUIT (con o sin guiones) tenga 11 dígitos y un
// dígito verificador correcto. Acepta "20-12345678-6" o "20123456786".
func ValidateCUIT(cuit string) error {
	digits := extractDigits(cuit)
	if len(digits) != 11 {
		return fmt.Errorf("afip: la CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeCUITCheckDigit(string(digits[:10]))
	if err != nil {
		return err
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador de CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ComputeCUITCheckDigit calcula el dígito verificador para los 10 primeros dígitos.
func ComputeCUITCheckDigit(prefix string) (byte, error) {
	digits := extractDigits(prefix)
	if len(digits) < 10 {
		return 0, fmt.Errorf("afip: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:10] {
		sum += int(d-'0') * cuitWeights[i]
	}
	switch v := 11 - sum%11; v {
	case 11:
		return '0', nil
	case 10:
		return 0, fmt.Errorf("afip: el prefijo %s no admite dígito verificador", string(digits[:10]))
	default:
		return byte('0' + v), nil
	}
}

// OnlyDigits devuelve solo los dígitos de s (útil para CUIT y DNI).
func OnlyDigits(s string) string {
	return string(extractDigits(s))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
