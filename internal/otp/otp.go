// Package otp produces the time-boxed numeric codes mailed to users during
// signup and login.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of decimal digits in a generated code.
const CodeLength = 6

var codeMax = big.NewInt(1000000)

// Generator produces one-time codes valid for a fixed window. Expiry must
// be positive; config validation guarantees that before the service starts.
type Generator struct {
	Expiry time.Duration
}

func NewGenerator(expiry time.Duration) *Generator {
	return &Generator{Expiry: expiry}
}

// Generate returns a six-digit zero-padded code drawn from crypto/rand and
// the absolute UTC instant at which it stops being valid.
func (g *Generator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	return code, time.Now().UTC().Add(g.Expiry), nil
}
