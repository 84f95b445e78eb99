package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
)

// this is a result, not a cause: 32 random bytes plus a 32 byte HMAC,
// unpadded URL-safe base64
const sessionIDLength = 86

var idEncoding = base64.RawURLEncoding

// A SessionID is what is emitted to the user in the form of a cookie.
type SessionID string

// NoSessionID is the ID of a session that has not been created yet.
var NoSessionID = SessionID("")

// An IDSource hands out new SessionIDs and recognizes its own.
type IDSource interface {
	Get() SessionID
	Check(SessionID) bool
}

// Session IDs are moderately expensive to generate. The IDGenerator
// buffers them up in a channel so a request normally finds one waiting.
//
// Every ID carries an HMAC over its random part, so a server can refuse
// any ID it did not issue without a lookup. That rules out session
// fixation with attacker-chosen IDs.
type IDGenerator struct {
	output     chan SessionID
	hmacKey    []byte
	hmacer     hash.Hash
	randReader io.Reader
}

// NewIDGenerator returns an IDGenerator buffering up to bufferSize IDs.
// A bufferSize of 0 uses a default of 128.
//
// key validates sessions. If it is empty, 32 bytes are pulled from the
// system CSPRNG, which invalidates all sessions on restart. Changing the
// key invalidates all current sessions.
func NewIDGenerator(bufferSize int, key []byte) *IDGenerator {
	if bufferSize == 0 {
		bufferSize = 128
	}

	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Errorf("can't read session key from CSPRNG: %w", err))
		}
	}

	return &IDGenerator{
		output:     make(chan SessionID, bufferSize),
		hmacKey:    key,
		hmacer:     hmac.New(sha256.New, key),
		randReader: rand.Reader,
	}
}

// Serve implements suture.Service.
func (g *IDGenerator) Serve(ctx context.Context) error {
	// one 64 byte backing array: 32 random bytes, then the HMAC appended
	// into the same capacity
	buf := make([]byte, 64)
	for {
		id := g.generate(buf[:32])
		select {
		case g.output <- id:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *IDGenerator) String() string {
	return "session ID generator"
}

// Get retrieves a fresh new SessionID.
func (g *IDGenerator) Get() SessionID {
	return <-g.output
}

// separated for easy testing; conceptually this is just inline in Serve.
func (g *IDGenerator) generate(sessionID []byte) SessionID {
	n, err := g.randReader.Read(sessionID)
	if err != nil {
		panic(fmt.Errorf("while making session keys, couldn't read from CSPRNG: %w", err))
	}
	if n != 32 {
		panic(fmt.Errorf("while making session keys, could only read %d bytes", n))
	}
	// per the interface hash.Hash, this can not return an error
	_, _ = g.hmacer.Write(sessionID)
	sessionID = g.hmacer.Sum(sessionID)
	g.hmacer.Reset()
	return SessionID(idEncoding.EncodeToString(sessionID))
}

// Check validates that a given session ID was generated by an
// IDGenerator with the same key.
func (g *IDGenerator) Check(sessionID SessionID) bool {
	if len(sessionID) != sessionIDLength {
		return false
	}

	b, err := idEncoding.DecodeString(string(sessionID))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, g.hmacKey)
	mac.Write(b[:32])
	return hmac.Equal(mac.Sum(nil), b[32:])
}
