package game

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	SECRET_SIZE     = 32
	COMMITMENT_SIZE = sha256.Size

	// choice byte + secret, hashed as one buffer
	COMMIT_PAYLOAD_SIZE = 1 + SECRET_SIZE
)

// Commitment binds a (choice, secret) pair: SHA-256(choice_byte || secret).
// Published before reveal so the counterparty can't see the choice early.
type Commitment [COMMITMENT_SIZE]byte

// Commit hashes the choice byte followed by the 32-byte secret.
// The payload length is fixed at 33 bytes; anything else fails with
// ErrMalformedCommitmentInput instead of silently hashing a short buffer.
func Commit(choice Choice, secret []byte) (Commitment, error) {
	if !choice.Valid() {
		return Commitment{}, fmt.Errorf("%w: choice byte %d", ErrMalformedCommitmentInput, byte(choice))
	}
	if len(secret) != SECRET_SIZE {
		return Commitment{}, fmt.Errorf("%w: secret is %d bytes, want %d", ErrMalformedCommitmentInput, len(secret), SECRET_SIZE)
	}

	var payload [COMMIT_PAYLOAD_SIZE]byte
	payload[0] = byte(choice)
	copy(payload[1:], secret)

	return sha256.Sum256(payload[:]), nil
}

// Verify recomputes the commitment from the revealed pair and compares it
// to the stored value in constant time. Any mismatch fails with
// ErrInvalidReveal.
func Verify(commitment Commitment, choice Choice, secret []byte) error {
	computed, err := Commit(choice, secret)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(computed[:], commitment[:]) != 1 {
		return ErrInvalidReveal
	}
	return nil
}

// GenerateSecret returns 32 bytes from a cryptographically secure source.
// Secrets must never be reused across games.
func GenerateSecret() []byte {
	b := make([]byte, SECRET_SIZE)
	rand.Read(b)
	return b
}

func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(c[:])), nil
}

func (c *Commitment) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCommitmentInput, err)
	}
	if len(b) != COMMITMENT_SIZE {
		return fmt.Errorf("%w: commitment is %d bytes, want %d", ErrMalformedCommitmentInput, len(b), COMMITMENT_SIZE)
	}
	copy(c[:], b)
	return nil
}

// ParseCommitment decodes a hex-encoded 32-byte commitment.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return Commitment{}, err
	}
	return c, nil
}
