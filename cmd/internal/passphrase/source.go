// Package passphrase resolves keystore passphrases for the command line tools.
package passphrase

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source resolves a passphrase once, from an environment variable or by
// prompting on the terminal, and caches the result.
type Source struct {
	envVar string
	label  string

	lookup   func(string) (string, bool)
	prompt   func() ([]byte, error)
	terminal func() bool
	out      io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource checks envVar before prompting for the passphrase of the named
// key ("operator", "signer", ...).
func NewSource(envVar, label string) *Source {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "keystore"
	}
	return &Source{
		envVar:   strings.TrimSpace(envVar),
		label:    label,
		lookup:   os.LookupEnv,
		prompt:   func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) },
		terminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		out:      os.Stderr,
	}
}

// Static returns a source that always yields value.
func Static(value string) *Source {
	s := &Source{}
	s.once.Do(func() { s.value = value })
	return s
}

// Get returns the cached passphrase or resolves it on first use. An exported
// but blank environment variable is an error; so is a blank answer.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := s.lookup(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}

		if !s.terminal() {
			if s.envVar != "" {
				s.err = fmt.Errorf("%s passphrase required; set %s or run interactively", s.label, s.envVar)
			} else {
				s.err = fmt.Errorf("%s passphrase required and no terminal available", s.label)
			}
			return
		}

		fmt.Fprintf(s.out, "Enter %s passphrase: ", s.label)
		raw, err := s.prompt()
		fmt.Fprintln(s.out)
		if err != nil {
			s.err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}
		if strings.TrimSpace(string(raw)) == "" {
			s.err = fmt.Errorf("%s passphrase cannot be empty", s.label)
			return
		}
		s.value = string(raw)
	})
	return s.value, s.err
}
