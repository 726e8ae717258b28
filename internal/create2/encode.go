package create2

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encode ABI-encodes values against the given Solidity type tags, exactly as
// abi.encode would on-chain. Addresses are left-padded to 32 bytes, uint256
// values are big-endian, dynamic arrays are written as an offset in the head
// followed by length and elements in the tail, bytes32 is copied verbatim.
//
// Go shapes accepted per tag are those of go-ethereum's abi package:
// common.Address, *big.Int, common.Hash / [32]byte and slices of them.
func Encode(types []string, values ...any) ([]byte, error) {
	args := make(abi.Arguments, 0, len(types))
	for _, tag := range types {
		t, err := abi.NewType(tag, "", nil)
		if err != nil {
			return nil, &EncodingError{Types: types, Err: err}
		}
		args = append(args, abi.Argument{Type: t})
	}

	out, err := args.Pack(values...)
	if err != nil {
		return nil, &EncodingError{Types: types, Err: err}
	}
	return out, nil
}
