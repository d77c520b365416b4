package password

import (
	"crypto/rand"

	"golang.org/x/crypto/scrypt"
)

const (
	SaltSize = 16
	KeySize  = 32
)

// Params are scrypt cost parameters.
type Params struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

var DefaultParams = Params{N: 1 << 15, R: 8, P: 1}

func (p Params) withDefaults() Params {
	if p.N <= 1 {
		p.N = DefaultParams.N
	}
	if p.R <= 0 {
		p.R = DefaultParams.R
	}
	if p.P <= 0 {
		p.P = DefaultParams.P
	}
	return p
}

func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey stretches plain into a KeySize key bound to salt.
func DeriveKey(plain string, salt []byte, params Params) ([]byte, error) {
	params = params.withDefaults()
	return scrypt.Key([]byte(plain), salt, params.N, params.R, params.P, KeySize)
}
