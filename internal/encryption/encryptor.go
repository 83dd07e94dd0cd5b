// Package encryption protects export archives before they leave the
// machine. Encryption needs only the public key; decryption unlocks the
// passphrase-protected private key once per session.
package encryption

import "io"

// Encryptor handles archive encryption and unlocking for decryption.
type Encryptor interface {
	// Setup performs one-time key generation: the public key is stored in
	// plaintext, the private key encrypted with the passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with the passphrase and returns a
	// DecryptionContext for the session. Fails on a wrong passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the
// duration of an import session. It is never written to disk.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
