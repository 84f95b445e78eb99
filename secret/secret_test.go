package secret

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

var errBadWriter = errors.New("bad writer")

type badwriter struct{}

func (bw badwriter) Write(b []byte) (int, error) {
	return 0, errBadWriter
}

func TestEscapedWrite(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		in  string
		out string
	}{
		{"a", "a"},
		{"a\x00a", "a\x00\x00a"},
		{"", ""},
	} {
		var buf bytes.Buffer
		x, err := EscapedWrite(&buf, []byte(test.in))
		if err != nil {
			t.Fatal("Error:", err)
		}
		if x != len(test.out) {
			t.Fatal("Mismatch between lengths")
		}
		if buf.String() != test.out {
			t.Fatal("Mismatched output")
		}
	}

	x, err := EscapedWrite(badwriter{}, []byte("moo"))
	if x != 0 || err != errBadWriter {
		t.Fatal("EscapedWrite fails to handle writer errors")
	}
	x, err = EscapedWrite(badwriter{}, []byte("m\x00oo"))
	if x != 0 || err != errBadWriter {
		t.Fatal("EscapedWrite fails to handle writer errors")
	}
}

func TestSecretErrorCases(t *testing.T) {
	t.Parallel()

	sEmpty := New([]byte(""))
	if _, err := sEmpty.Authenticate([]byte("moo")); err != ErrNoSecretKey {
		t.Fatal("can authenticate without a key")
	}
	if _, err := sEmpty.UnwrapAuthentication([]byte("moo")); err != ErrNoSecretKey {
		t.Fatal("can unwrap without a key")
	}

	var sNil *Secret
	if _, err := sNil.Authenticate([]byte("moo")); err != ErrNoSecretKey {
		t.Fatal("can authenticate with a nil *Secret")
	}
	if !sNil.IsZero() {
		t.Fatal("nil secret isn't zero")
	}

	s := New([]byte("secret"))
	if _, err := s.UnwrapAuthentication([]byte("moo")); err != ErrNotAuthenticated {
		t.Fatal("Can authenticate something with no sig")
	}
	if _, err := s.Authenticate(); err != ErrNothingToSign {
		t.Fatal("authenticating nothing did not fail cleanly:", err)
	}
	if _, err := s.UnwrapAuthentication(); err != ErrNothingToSign {
		t.Fatal("unwrapping nothing did not fail cleanly:", err)
	}
}

func TestSecrets(t *testing.T) {
	t.Parallel()

	tests := [][][]byte{
		{[]byte("ab\x00")},
		{[]byte("a")},
		{[]byte("\x00abcd")},
		{[]byte("abc"), []byte("def")},
		{[]byte("ab\x00"), []byte("\x00\x00")},
		{[]byte("abc"), []byte("")},
	}
	s := New([]byte("secret"))
	wrong := New([]byte("totally public"))

	for _, in := range tests {
		authed, err := s.Authenticate(in...)
		if err != nil {
			t.Fatal("Error authenticating bytes:", in)
		}

		var signed [][]byte
		signed = append(signed, in[:len(in)-1]...)
		signed = append(signed, authed)

		checked, err := s.UnwrapAuthentication(signed...)
		if err != nil {
			t.Fatal("Error unwrapping bytes:", in)
		}
		if string(checked) != string(in[len(in)-1]) {
			t.Fatal("Authed bytes did not come back cleanly:", string(checked))
		}

		if _, err = wrong.UnwrapAuthentication(signed...); err == nil {
			t.Fatal("The wrong secret was able to unwrap the auth!")
		}
	}

	authedLeft, _ := s.Authenticate([]byte("A\x00\x01"), []byte("B"), []byte("C"))
	authedRight, _ := s.Authenticate([]byte("A"), []byte("\x00\x01B"), []byte("C"))
	if reflect.DeepEqual(authedLeft, authedRight) {
		t.Fatal("authentication does not protect correctly against delimiters")
	}
}

func TestSignUnsign(t *testing.T) {
	t.Parallel()
	s := New([]byte("secret"))

	signed, err := s.Sign("sessionid", "abc")
	if err != nil {
		t.Fatal(err)
	}
	value, err := s.Unsign("sessionid", signed)
	if err != nil || value != "abc" {
		t.Fatalf("round trip failed: %q %v", value, err)
	}

	// a value signed for one name can't be used under another
	if _, err := s.Unsign("other", signed); err != ErrNotAuthenticated {
		t.Fatal("signature moved between names")
	}
	tampered := []byte(signed)
	if tampered[len(tampered)-1] == 'x' {
		tampered[len(tampered)-1] = 'y'
	} else {
		tampered[len(tampered)-1] = 'x'
	}
	if _, err := s.Unsign("sessionid", string(tampered)); err != ErrNotAuthenticated {
		t.Fatal("tampered signature accepted")
	}
}
