/*

Package secret signs values so they can be handed to a client and later
verified as having come from us.

The session middleware uses this to sign the session cookie; the toolbar
never trusts a session ID that does not carry a valid signature.

*/
package secret

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// SignSuffix separates a signed value from its signature.
var SignSuffix = []byte("__!signed!_")

// ErrNotAuthenticated means that this secret has a key, but the value
// passed in is not correctly signed by this key.
var ErrNotAuthenticated = errors.New("this value is not authenticated by this secret")

// ErrNothingToSign means Authenticate or UnwrapAuthentication was called
// without any values.
var ErrNothingToSign = errors.New("no values were passed to sign")

// ErrNoSecretKey means this secret does not have a key to sign with.
var ErrNoSecretKey = errors.New("secret does not have a key")

// SignatureEncoding is base64 without '/' or '+', neither of which is
// legal in a cookie value under a strict reading of RFC 6265.
var SignatureEncoding = base64.NewEncoding("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ$%").WithPadding(base64.NoPadding)

// An Authenticator takes in a series of []bytes, and yields the last
// []byte concatenated with the signature over all of them.
type Authenticator interface {
	Authenticate(...[]byte) ([]byte, error)
}

// An AuthenticationUnwrapper verifies the output of an Authenticator and
// returns the original last value.
type AuthenticationUnwrapper interface {
	UnwrapAuthentication(...[]byte) ([]byte, error)
}

// A Secret signs sequences of bytes as having come from something in
// possession of this secret.
type Secret struct {
	secret []byte
}

// New returns a Secret for the given key. The key is not copied.
func New(secret []byte) *Secret {
	return &Secret{secret}
}

var sigLength = SignatureEncoding.EncodedLen(sha256.Size)
var fullLength = sigLength + len(SignSuffix)

// Authenticate signs the last byte slice. The preceding slices contribute
// to the signature but are not part of the result, which lets a key/value
// pair be signed so that the value can't be moved to another key.
func (s *Secret) Authenticate(b ...[]byte) ([]byte, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, ErrNoSecretKey
	}
	if len(b) == 0 {
		return nil, ErrNothingToSign
	}

	sig := s.authenticate(b...)
	last := b[len(b)-1]

	result := make([]byte, 0, len(last)+fullLength)
	result = append(result, last...)
	result = append(result, SignSuffix...)
	result = append(result, sig...)
	return result, nil
}

// UnwrapAuthentication takes the result of an Authenticate call and
// returns the original value if it is signed by this secret. All values
// passed to Authenticate must be passed again, in the same order.
func (s *Secret) UnwrapAuthentication(b ...[]byte) ([]byte, error) {
	if s == nil || len(s.secret) == 0 {
		return nil, ErrNoSecretKey
	}
	if len(b) == 0 {
		return nil, ErrNothingToSign
	}

	last := b[len(b)-1]
	if len(last) < fullLength {
		return nil, ErrNotAuthenticated
	}
	value := last[:len(last)-fullLength]
	if !hmac.Equal(last[len(value):len(value)+len(SignSuffix)], SignSuffix) {
		return nil, ErrNotAuthenticated
	}

	original := make([][]byte, 0, len(b))
	original = append(original, b[:len(b)-1]...)
	original = append(original, value)
	expected := s.authenticate(original...)

	if hmac.Equal(expected, last[len(last)-sigLength:]) {
		return value, nil
	}
	return nil, ErrNotAuthenticated
}

// Sign is Authenticate for the common string key/value case.
func (s *Secret) Sign(name, value string) (string, error) {
	signed, err := s.Authenticate([]byte(name), []byte(value))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Unsign reverses Sign.
func (s *Secret) Unsign(name, signed string) (string, error) {
	value, err := s.UnwrapAuthentication([]byte(name), []byte(signed))
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// IsZero reports whether the secret lacks a key.
func (s *Secret) IsZero() bool {
	return s == nil || len(s.secret) == 0
}

// EscapedWrite writes b to w with every zero byte doubled.
//
// Fields are then separated by a single zero, so ("ab", "c") and
// ("a", "bc") can never produce the same MAC input.
func EscapedWrite(w io.Writer, b []byte) (int, error) {
	count := len(b)
	if count == 0 {
		return 0, nil
	}

	start, end, total := 0, 0, 0
	for end < count {
		if b[end] == 0 {
			n, err := w.Write(b[start : end+1])
			total += n
			if err != nil {
				return total, err
			}
			start = end
		}
		end++
	}
	n, err := w.Write(b[start:end])
	total += n
	return total, err
}

func (s *Secret) authenticate(b ...[]byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	for _, field := range b {
		_, _ = EscapedWrite(mac, field)
		_, _ = mac.Write([]byte{0, 1})
	}

	sig := make([]byte, sigLength)
	SignatureEncoding.Encode(sig, mac.Sum(nil))
	return sig
}
