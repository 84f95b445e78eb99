// Package logger holds the minimal logging interface shared by the
// toolbar, session and router packages.
package logger

import (
	"fmt"
	"log"
	"os"
)

// A Logger is used whenever some kind of output needs to be provided.
// *log.Logger satisfies it.
type Logger interface {
	Print(v ...interface{})
}

// Nop is a Logger that does nothing.
type Nop struct{}

func (Nop) Print(v ...interface{}) {}

// Std returns a Logger writing to os.Stderr with the given prefix.
func Std(prefix string) Logger {
	return log.New(os.Stderr, prefix, log.LstdFlags)
}

// Printf formats according to a format specifier and prints to l. A nil
// Logger discards the message.
func Printf(l Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.Print(fmt.Sprintf(format, v...))
}
