package storage

import (
	"github.com/awnumar/memguard"
)

// Password keeps a secret in an encrypted memory enclave. The plaintext is
// only exposed for the duration of a call to With.
type Password struct {
	enclave *memguard.Enclave
}

// NewPassword moves secret into an enclave. secret is wiped.
// An empty secret results in a nil Password.
func NewPassword(secret []byte) *Password {
	if len(secret) == 0 {
		return nil
	}
	return &Password{enclave: memguard.NewEnclave(secret)}
}

// Empty is true for nil or destroyed passwords.
func (p *Password) Empty() bool {
	return p == nil || p.enclave == nil
}

// With calls f with the plaintext secret. The plaintext buffer is destroyed
// when f returns; f must not retain it.
func (p *Password) With(f func(secret []byte) error) error {
	if p.Empty() {
		return ErrPasswordRequired
	}
	buf, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return f(buf.Bytes())
}

// Destroy forgets the secret.
func (p *Password) Destroy() {
	if p != nil {
		p.enclave = nil
	}
}
