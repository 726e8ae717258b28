package create2

import (
	"github.com/ethereum/go-ethereum/common"
)

// Derive computes the CREATE2 address
// keccak256(0xff ++ deployer ++ salt ++ keccak256(initCode))[12:].
func Derive(deployer common.Address, salt common.Hash, initCode []byte) common.Address {
	return DeriveFromHash(deployer, salt, Keccak256(initCode))
}

// DeriveFromHash is Derive for callers that already hold the init code hash.
func DeriveFromHash(deployer common.Address, salt common.Hash, initCodeHash common.Hash) common.Address {
	data := make([]byte, 1+common.AddressLength+common.HashLength+common.HashLength)
	data[0] = 0xff
	copy(data[1:21], deployer[:])
	copy(data[21:53], salt[:])
	copy(data[53:85], initCodeHash[:])

	hash := Keccak256(data)
	return common.BytesToAddress(hash[12:])
}
