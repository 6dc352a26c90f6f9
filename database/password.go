package database

import (
	"crypto/rand"
	"io"
	"math/big"
)

const (
	passwordUpper   = "QWERTYUIOPASDFGHJKLZXCVBNM"
	passwordLower   = "qwertyuiopasdfghjklzxcvbnm"
	passwordNumber  = "0123456789"
	passwordSpecial = "~!@#$%^&*()_+-={}[];:,./<>?"
	passwordAll     = passwordUpper + passwordLower + passwordNumber + passwordSpecial

	minPasswordLength = 10
	maxPasswordLength = 17
)

// GeneratePassword returns a random password of 10 to 17 characters
// with at least one upper-case letter, lower-case letter, digit and
// symbol.
func GeneratePassword() (string, error) {
	return generatePassword(rand.Reader)
}

func generatePassword(r io.Reader) (string, error) {
	extra, err := randIntn(r, maxPasswordLength-minPasswordLength+1)
	if err != nil {
		return "", err
	}
	b := make([]byte, minPasswordLength+extra)
	for i := range b {
		set := passwordAll
		switch i {
		case 0:
			set = passwordUpper
		case 1:
			set = passwordLower
		case 2:
			set = passwordNumber
		case 3:
			set = passwordSpecial
		}
		j, err := randIntn(r, len(set))
		if err != nil {
			return "", err
		}
		b[i] = set[j]
	}
	for i := len(b) - 1; i > 0; i-- {
		j, err := randIntn(r, i+1)
		if err != nil {
			return "", err
		}
		b[i], b[j] = b[j], b[i]
	}
	return string(b), nil
}

func randIntn(r io.Reader, n int) (int, error) {
	v, err := rand.Int(r, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
