package create2

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// saltTypes is the abi.encode signature the Summoner hashes into a DAO salt.
var saltTypes = []string{"address[]", "uint256[]", "bytes32"}

// PrimarySalt returns keccak256(abi.encode(holders, shares, customSalt)), the
// salt the Summoner uses for the DAO clone. Pass the zero hash when no custom
// salt was chosen.
func PrimarySalt(holders []common.Address, shares []*uint256.Int, customSalt common.Hash) (common.Hash, error) {
	if len(holders) != len(shares) {
		return common.Hash{}, invalid("shares", fmt.Sprintf("%d holders but %d share amounts", len(holders), len(shares)))
	}

	amounts := make([]*big.Int, len(shares))
	for i, s := range shares {
		if s == nil {
			return common.Hash{}, invalid(fmt.Sprintf("shares[%d]", i), "missing amount")
		}
		amounts[i] = s.ToBig()
	}
	encoded, err := Encode(saltTypes, holders, amounts, [32]byte(customSalt))
	if err != nil {
		return common.Hash{}, err
	}
	return Keccak256(encoded), nil
}

// DependentSalt returns bytes32(bytes20(primary)): the DAO address in the
// high-order 20 bytes followed by 12 zero bytes. It is a layout transform,
// not a hash.
func DependentSalt(primary common.Address) common.Hash {
	var salt common.Hash
	copy(salt[:common.AddressLength], primary[:])
	return salt
}
