package keypair

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// DefaultSS58Prefix is the generic substrate network prefix.
const DefaultSS58Prefix uint16 = 42

var (
	ss58Context = []byte("SS58PRE")

	ErrSS58Checksum = errors.New("keypair: ss58 checksum mismatch")
	ErrSS58Length   = errors.New("keypair: ss58 address has unexpected length")
)

// SS58Encode returns the SS58 address of a 32-byte public key.
func SS58Encode(public []byte, prefix uint16) string {
	data := append(ss58PrefixBytes(prefix), public...)
	return base58.Encode(append(data, ss58Checksum(data)...))
}

// SS58Decode returns the public key and network prefix encoded in address.
func SS58Decode(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("keypair: ss58 base58: %w", err)
	}
	if len(raw) < 1 {
		return nil, 0, ErrSS58Length
	}

	var prefix uint16
	prefixLen := 1
	if raw[0]&0x40 != 0 {
		if len(raw) < 2 {
			return nil, 0, ErrSS58Length
		}
		prefixLen = 2
		lower := (raw[0]<<2)&0xFC | raw[1]>>6
		upper := raw[1] & 0x3F
		prefix = uint16(lower) | uint16(upper)<<8
	} else {
		prefix = uint16(raw[0])
	}

	if len(raw) != prefixLen+32+2 {
		return nil, 0, ErrSS58Length
	}
	data, checksum := raw[:len(raw)-2], raw[len(raw)-2:]
	if !bytes.Equal(ss58Checksum(data), checksum) {
		return nil, 0, ErrSS58Checksum
	}
	return data[prefixLen:], prefix, nil
}

func ss58PrefixBytes(prefix uint16) []byte {
	if prefix < 64 {
		return []byte{byte(prefix)}
	}
	return []byte{
		byte((prefix&0x00FC)>>2) | 0x40,
		byte(prefix>>8) | byte((prefix&0x0003)<<6),
	}
}

func ss58Checksum(data []byte) []byte {
	sum := blake2b.Sum512(append(append([]byte{}, ss58Context...), data...))
	return sum[:2]
}
