package executor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// Credential is the secret handed to the elevation wrapper on stdin.
// Every formatting path prints a placeholder so the secret cannot leak into
// logs, traces or result stores by accident.
type Credential struct {
	secret string
}

// NewCredential wraps a secret. Trailing newlines are stripped.
func NewCredential(secret string) Credential {
	return Credential{secret: strings.TrimRight(secret, "\r\n")}
}

// CredentialFromEnv reads the secret from an environment variable.
func CredentialFromEnv(name string) (Credential, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return Credential{}, fmt.Errorf("environment variable %s is not set", name)
	}
	return NewCredential(v), nil
}

// CredentialFromFile reads the first line of a file.
func CredentialFromFile(path string) (Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return Credential{}, fmt.Errorf("opening credential file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return CredentialFromReader(f)
}

// CredentialFromReader reads the first line of r.
func CredentialFromReader(r io.Reader) (Credential, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return Credential{}, fmt.Errorf("reading credential: %w", err)
	}
	return NewCredential(line), nil
}

// IsZero reports whether no secret is held.
func (c Credential) IsZero() bool { return c.secret == "" }

// String implements fmt.Stringer without revealing the secret.
func (c Credential) String() string { return redacted }

// GoString implements fmt.GoStringer without revealing the secret.
func (c Credential) GoString() string { return "executor.Credential{" + redacted + "}" }

// MarshalText keeps the secret out of JSON, YAML and logrus fields.
func (c Credential) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// stdin returns the bytes written to the wrapper: the secret and a newline.
// Closing the pipe afterwards is the end-of-input marker.
func (c Credential) stdin() io.Reader {
	return strings.NewReader(c.secret + "\n")
}
