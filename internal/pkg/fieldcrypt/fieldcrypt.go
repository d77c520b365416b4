// Package fieldcrypt seals individual field values with AES-256-GCM.
//
// A sealed value is the text "awb1:<kind>:<base64url(salt|nonce|ciphertext)>".
// The kind byte is authenticated as additional data.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/password"
)

const (
	prefix    = "awb1:"
	nonceSize = 12

	KindString     byte = 's'
	KindStructured byte = 'j'
	KindPrimitive  byte = 'p'
)

type Cipher struct {
	params password.Params
}

func New(params password.Params) *Cipher {
	return &Cipher{params: params}
}

func Default() *Cipher {
	return New(password.DefaultParams)
}

// IsSealed reports whether s has the sealed value layout.
func IsSealed(s string) bool {
	return strings.HasPrefix(s, prefix) && len(s) > len(prefix)+2 && s[len(prefix)+1] == ':'
}

// Sealer encrypts many values under one password with a single key derivation.
type Sealer struct {
	salt []byte
	aead cipher.AEAD
}

func (c *Cipher) NewSealer(pass string) (*Sealer, error) {
	salt, err := password.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", appErr.ErrCipherFailure, err)
	}
	aead, err := c.aead(pass, salt)
	if err != nil {
		return nil, err
	}
	return &Sealer{salt: salt, aead: aead}, nil
}

func (s *Sealer) Seal(kind byte, plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", appErr.ErrCipherFailure, err)
	}
	header := prefix + string(kind) + ":"
	buf := make([]byte, 0, len(s.salt)+nonceSize+len(plaintext)+s.aead.Overhead())
	buf = append(buf, s.salt...)
	buf = append(buf, nonce...)
	buf = s.aead.Seal(buf, nonce, plaintext, []byte(header))
	return header + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Opener decrypts values sealed under one password, caching keys per salt.
type Opener struct {
	cipher *Cipher
	pass   string
	keys   map[string]cipher.AEAD
}

func (c *Cipher) NewOpener(pass string) *Opener {
	return &Opener{cipher: c, pass: pass, keys: make(map[string]cipher.AEAD)}
}

// Open returns the kind and plaintext of a sealed value. Authentication
// failures are reported as ErrWrongPassword.
func (o *Opener) Open(token string) (byte, []byte, error) {
	if !IsSealed(token) {
		return 0, nil, fmt.Errorf("%w: value is not sealed", appErr.ErrCipherFailure)
	}
	kind := token[len(prefix)]
	header := token[:len(prefix)+2]
	raw, err := base64.RawURLEncoding.DecodeString(token[len(header):])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: decode: %v", appErr.ErrCipherFailure, err)
	}
	if len(raw) < password.SaltSize+nonceSize {
		return 0, nil, fmt.Errorf("%w: sealed value too short", appErr.ErrCipherFailure)
	}
	salt := raw[:password.SaltSize]
	nonce := raw[password.SaltSize : password.SaltSize+nonceSize]
	aead, ok := o.keys[string(salt)]
	if !ok {
		aead, err = o.cipher.aead(o.pass, salt)
		if err != nil {
			return 0, nil, err
		}
		o.keys[string(salt)] = aead
	}
	plain, err := aead.Open(nil, nonce, raw[password.SaltSize+nonceSize:], []byte(header))
	if err != nil {
		return 0, nil, appErr.ErrWrongPassword
	}
	return kind, plain, nil
}

func (c *Cipher) aead(pass string, salt []byte) (cipher.AEAD, error) {
	key, err := password.DeriveKey(pass, salt, c.params)
	if err != nil {
		return nil, fmt.Errorf("%w: derive key: %v", appErr.ErrCipherFailure, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrCipherFailure, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrCipherFailure, err)
	}
	return aead, nil
}
