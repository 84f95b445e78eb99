package secret

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
)

// A Generator pregenerates random Secrets so that the CSPRNG read is out
// of the critical path of a request.
//
// A Generator is a suture.Service; nothing is served until Serve is
// running.
type Generator struct {
	output     chan *Secret
	randReader io.Reader
}

// NewGenerator returns a Generator buffering up to bufferSize secrets.
// A bufferSize of 0 uses a default of 16.
func NewGenerator(bufferSize int) *Generator {
	if bufferSize == 0 {
		bufferSize = 16
	}

	return &Generator{
		output:     make(chan *Secret, bufferSize),
		randReader: rand.Reader,
	}
}

// Serve implements suture.Service.
func (g *Generator) Serve(ctx context.Context) error {
	for {
		s := g.generate()
		select {
		case g.output <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (g *Generator) String() string {
	return "secret generator"
}

// Get returns a fresh Secret. It blocks until Serve produces one.
func (g *Generator) Get() *Secret {
	return <-g.output
}

// panics here are internal and recovered by the supervisor
func (g *Generator) generate() *Secret {
	b, err := randomBytes(g.randReader, 32)
	if err != nil {
		panic(fmt.Errorf("while making secret keys: %w", err))
	}
	return &Secret{b}
}

// Get synchronously reads a new Secret from the system CSPRNG.
func Get() *Secret {
	b, err := randomBytes(rand.Reader, 32)
	if err != nil {
		panic(fmt.Errorf("while making secret keys: %w", err))
	}
	return &Secret{b}
}

func randomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	read, err := r.Read(b)
	if err != nil {
		return nil, fmt.Errorf("couldn't read from CSPRNG: %w", err)
	}
	if read != n {
		return nil, fmt.Errorf("could only read %d bytes", read)
	}
	return b, nil
}
