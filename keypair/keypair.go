// Package keypair provides the signer a dendrite authenticates with.
//
// The dendrite only depends on the Keypair interface. Ed25519 is a ready
// implementation whose public identity is an SS58 address.
package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Keypair signs call material and names the caller.
type Keypair interface {
	Sign(message []byte) ([]byte, error)
	SS58Address() string
}

var ErrSeedSize = fmt.Errorf("keypair: seed must be %d bytes", ed25519.SeedSize)

// Ed25519 is a Keypair backed by an Ed25519 private key.
type Ed25519 struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
	address string
}

// Generate creates a random keypair.
func Generate() (*Ed25519, error) {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keypair: generating Ed25519 key: %w", err)
	}
	return fromPrivate(private), nil
}

// FromSeed derives the keypair for a 32-byte seed.
func FromSeed(seed []byte) (*Ed25519, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrSeedSize
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

// Load reads a hex-encoded seed (optionally 0x-prefixed) from path.
func Load(path string) (*Ed25519, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keypair: reading seed: %w", err)
	}
	text := strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x")
	seed, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("keypair: decoding seed: %w", err)
	}
	return FromSeed(seed)
}

// Save writes the seed of k to path as hex with 0600 permissions.
func (k *Ed25519) Save(path string) error {
	seed := hex.EncodeToString(k.private.Seed())
	if err := os.WriteFile(path, []byte("0x"+seed+"\n"), 0600); err != nil {
		return fmt.Errorf("keypair: writing seed: %w", err)
	}
	return nil
}

func fromPrivate(private ed25519.PrivateKey) *Ed25519 {
	public := private.Public().(ed25519.PublicKey)
	return &Ed25519{
		public:  public,
		private: private,
		address: SS58Encode(public, DefaultSS58Prefix),
	}
}

func (k *Ed25519) Sign(message []byte) ([]byte, error) {
	if k == nil || len(k.private) != ed25519.PrivateKeySize {
		return nil, errors.New("keypair: no private key")
	}
	return ed25519.Sign(k.private, message), nil
}

// Verify reports whether signature is k's signature of message.
func (k *Ed25519) Verify(message, signature []byte) bool {
	return ed25519.Verify(k.public, message, signature)
}

func (k *Ed25519) PublicKey() ed25519.PublicKey {
	return k.public
}

func (k *Ed25519) SS58Address() string {
	return k.address
}
