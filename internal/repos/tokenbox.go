package repos

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var errTokenSeal = errors.New("token: cannot open sealed value")

const nonceLen = 24

// TokenBox seals bearer tokens before they reach the sessions table.
type TokenBox struct{ key [32]byte }

func NewTokenBox(secret string) *TokenBox {
	return &TokenBox{key: sha256.Sum256([]byte(secret))}
}

func (b *TokenBox) Seal(plain string) ([]byte, error) {
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key), nil
}

func (b *TokenBox) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceLen+secretbox.Overhead {
		return "", errTokenSeal
	}
	var nonce [nonceLen]byte
	copy(nonce[:], sealed[:nonceLen])
	out, ok := secretbox.Open(nil, sealed[nonceLen:], &nonce, &b.key)
	if !ok {
		return "", errTokenSeal
	}
	return string(out), nil
}
