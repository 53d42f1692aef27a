// Package validation содержит функции валидации входных данных.
package validation

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail проверяет базовую форму адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidDespatchID проверяет, что идентификатор отгрузки непустой.
func IsValidDespatchID(id string) bool {
	return strings.TrimSpace(id) != ""
}

// IsValidQuantity проверяет, что количество положительное.
func IsValidQuantity(quantity int64) bool {
	return quantity > 0
}
