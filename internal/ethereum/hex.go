// Package ethereum decodes and encodes the textual forms of addresses, hashes
// and uint256 amounts used on the command line, in config files and over HTTP.
package ethereum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DecodeAddress decodes a hex address string. The 0x prefix is optional and
// any letter case is accepted; EIP-55 checksums are not enforced.
func DecodeAddress(s string) (common.Address, error) {
	var addr common.Address
	s = trim0x(s)
	if len(s) != 2*common.AddressLength {
		return addr, fmt.Errorf("invalid address length: %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid hex: %w", err)
	}
	copy(addr[:], b)
	return addr, nil
}

// DecodeHash decodes a 32 byte hex string.
func DecodeHash(s string) (common.Hash, error) {
	var h common.Hash
	s = trim0x(s)
	if len(s) != 2*common.HashLength {
		return h, fmt.Errorf("invalid hash length: %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hex: %w", err)
	}
	copy(h[:], b)
	return h, nil
}

// DecodeUint256 decodes an unsigned decimal or 0x-prefixed hex integer that
// must fit in 256 bits. Signs are rejected and hex may carry leading zeros.
func DecodeUint256(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}
	switch s[0] {
	case '-':
		return nil, fmt.Errorf("negative number: %s", s)
	case '+':
		return nil, fmt.Errorf("signed number: %s", s)
	}

	var (
		out *uint256.Int
		err error
	)
	if Has0xPrefix(s) {
		if len(s) == 2 {
			return nil, fmt.Errorf("empty number")
		}
		// uint256.FromHex rejects leading zeros.
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			digits = "0"
		}
		out, err = uint256.FromHex("0x" + digits)
	} else {
		out, err = uint256.FromDecimal(s)
	}

	switch {
	case errors.Is(err, uint256.ErrBig256Range):
		return nil, fmt.Errorf("value overflows uint256: %s", s)
	case err != nil:
		return nil, fmt.Errorf("invalid number: %s", s)
	}
	return out, nil
}

// EncodeAddress encodes an address as lower-case hex with 0x prefix. This is
// the canonical output form.
func EncodeAddress(addr common.Address) string {
	return fmt.Sprintf("0x%x", addr[:])
}

// EncodeHash encodes a hash as lower-case hex with 0x prefix.
func EncodeHash(h common.Hash) string {
	return fmt.Sprintf("0x%x", h[:])
}

// EncodeBytes encodes bytes to hex string with 0x prefix.
func EncodeBytes(b []byte) string {
	return fmt.Sprintf("0x%x", b)
}

// Has0xPrefix returns true if the string has a 0x prefix.
func Has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func trim0x(s string) string {
	s = strings.TrimSpace(s)
	if Has0xPrefix(s) {
		return s[2:]
	}
	return s
}
