package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeRetries = 10
)

var errCodeSpaceExhausted = errors.New("could not generate a unique code")

func randomCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// newVoucherCode returns a code of the form LUCKY-XXXX-XXXX.
func newVoucherCode() (string, error) {
	first, err := randomCode(4)
	if err != nil {
		return "", err
	}
	second, err := randomCode(4)
	if err != nil {
		return "", err
	}
	return "LUCKY-" + first + "-" + second, nil
}

// newRedemptionCode returns a code of the form RW-XXXXXXXX.
func newRedemptionCode() (string, error) {
	code, err := randomCode(8)
	if err != nil {
		return "", err
	}
	return "RW-" + code, nil
}

// uniqueCode generates codes until exists reports one as free.
func uniqueCode(ctx context.Context, generate func() (string, error), exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeRetries; i++ {
		code, err := generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errCodeSpaceExhausted
}
