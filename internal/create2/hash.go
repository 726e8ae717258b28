package create2

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the EVM Keccak-256 digest of the concatenated inputs.
//
// This is the original Keccak submission padding (domain byte 0x01), not the
// finalized FIPS-202 SHA3-256 (0x06). The two produce unrelated digests and
// only the former matches the CREATE2 opcode.
func Keccak256(data ...[]byte) common.Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h common.Hash
	d.Sum(h[:0])
	return h
}
