// Package address implements the Algorand account/application address
// format: 32 raw bytes rendered as an unpadded base32 string with a 4-byte
// trailing checksum.
package address

import (
	"crypto/sha512"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// ByteLength is the number of bytes encoded in an address (public key
	// or script digest), excluding the checksum.
	ByteLength = 32
	// checksumLength is the number of trailing checksum bytes.
	checksumLength = 4
	// StringLength is the length of the base32 rendering of an address:
	// ceil((ByteLength+checksumLength)*8/5) with no padding.
	StringLength = 58

	appIDPrefix = "appID"
)

// InvalidAddressError reports why a string failed to parse as an Address.
type InvalidAddressError struct {
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address: %s", e.Reason)
}

func invalidAddress(reason string) error {
	return &InvalidAddressError{Reason: reason}
}

// Address is an opaque 32-byte account or application identifier.
type Address [ByteLength]byte

// ZeroAddress is the all-zero address, used as the sentinel "no address".
var ZeroAddress = Address{}

// FromBytes wraps exactly 32 bytes as an Address. It panics if b is not
// ByteLength bytes long, mirroring array-conversion semantics elsewhere in
// the codebase; callers with externally-sourced bytes should check length
// first.
func FromBytes(b []byte) Address {
	if len(b) != ByteLength {
		panic(fmt.Sprintf("address: expected %d bytes, got %d", ByteLength, len(b)))
	}
	var a Address
	copy(a[:], b)
	return a
}

// FromAppID derives the account address associated with application id n,
// per the protocol rule hash(ASCII("appID") || be64(n)).
func FromAppID(n uint64) Address {
	buf := make([]byte, len(appIDPrefix)+8)
	copy(buf, appIDPrefix)
	binary.BigEndian.PutUint64(buf[len(appIDPrefix):], n)
	return FromBytes(hash(buf))
}

// checksum returns the 4-byte checksum for the given 32-byte payload: the
// last 4 bytes of the SHA-512/256 digest of the payload.
func checksum(payload []byte) [checksumLength]byte {
	digest := hash(payload)
	var out [checksumLength]byte
	copy(out[:], digest[len(digest)-checksumLength:])
	return out
}

func hash(b []byte) []byte {
	h := sha512.New512_256()
	h.Write(b)
	return h.Sum(nil)
}

// Checksum returns the address's 4-byte checksum.
func (a Address) Checksum() [checksumLength]byte {
	return checksum(a[:])
}

// String renders the address as the 58-character unpadded base32 form of
// payload||checksum.
func (a Address) String() string {
	cs := a.Checksum()
	buf := make([]byte, ByteLength+checksumLength)
	copy(buf, a[:])
	copy(buf[ByteLength:], cs[:])
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns the raw 32-byte payload.
func (a Address) Bytes() []byte {
	out := make([]byte, ByteLength)
	copy(out, a[:])
	return out
}

// Equal reports whether two addresses hold the same bytes. String-form
// equality is not used anywhere in this package: addresses compare
// byte-wise.
func (a Address) Equal(o Address) bool {
	return a == o
}

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Parse decodes a 58-character base32 address string, validating length,
// base32 well-formedness, decoded length, and checksum in that order.
func Parse(s string) (Address, error) {
	if len(s) != StringLength {
		return Address{}, invalidAddress(fmt.Sprintf("string length must be %d characters, got %d", StringLength, len(s)))
	}

	decoded, err := b32.DecodeString(s)
	if err != nil {
		return Address{}, invalidAddress(fmt.Sprintf("not valid base32: %v", err))
	}

	if len(decoded) != ByteLength+checksumLength {
		return Address{}, invalidAddress(fmt.Sprintf("decoded payload must be %d bytes, got %d", ByteLength+checksumLength, len(decoded)))
	}

	var a Address
	copy(a[:], decoded[:ByteLength])
	var wantChecksum [checksumLength]byte
	copy(wantChecksum[:], decoded[ByteLength:])

	if a.Checksum() != wantChecksum {
		return Address{}, invalidAddress("checksum mismatch")
	}

	return a, nil
}

// MustParse is like Parse but panics on error; intended for tests and
// compile-time constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsInvalidAddress reports whether err is (or wraps) an InvalidAddressError.
func IsInvalidAddress(err error) bool {
	var target *InvalidAddressError
	return errors.As(err, &target)
}
