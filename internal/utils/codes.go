package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeDigits  = "0123456789"
)

// GenerateVerificationCode generates a cryptographically secure code of three
// uppercase letters followed by three digits, e.g. "QTR481".
func GenerateVerificationCode() (string, error) {
	var b strings.Builder
	b.Grow(6)
	for _, alphabet := range []string{codeLetters, codeLetters, codeLetters, codeDigits, codeDigits, codeDigits} {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", errors.Wrap(err, "failed to generate random number")
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// GenerateFolio returns "FO-A-" followed by five random digits.
func GenerateFolio() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", errors.Wrap(err, "failed to generate random number")
	}
	return fmt.Sprintf("FO-A-%05d", n.Int64()), nil
}

// GenerateFolioToken returns a 12 character uppercase reference derived from
// a random UUID.
func GenerateFolioToken() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:12])
}

// IsVerificationCode reports whether s has the three letters plus three
// digits shape. s must already be normalized.
func IsVerificationCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < 6; i++ {
		c := s[i]
		if i < 3 && (c < 'A' || c > 'Z') {
			return false
		}
		if i >= 3 && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// IsPostalCode reports whether s is exactly five ASCII digits.
func IsPostalCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
