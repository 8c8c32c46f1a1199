package models

import "strings"

// NormalizePlate приводит номер к канонической форме: без крайних
// пробелов и в верхнем регистре.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}
