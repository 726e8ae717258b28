package create2

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Minimal proxy (PUSH0 variant) deployed by the DAO and the Summoner.
//
// The deployer writes the prefix at 0x00, the implementation at 0x14 and the
// suffix at 0x24, then calls create2 over 0x36 bytes starting at 0x0e. That
// window is 18 prefix bytes, the 20 byte implementation and 16 suffix bytes.
const (
	ProxyPrefixHex = "602d5f8160095f39f35f5f365f5f37365f73"
	ProxySuffixHex = "5af43d5f5f3e6029573d5ffd5b3d5ff3"

	// ProxyBytecodeLength is the size of every assembled proxy init code.
	ProxyBytecodeLength = 54
)

var (
	proxyPrefix = common.FromHex(ProxyPrefixHex)
	proxySuffix = common.FromHex(ProxySuffixHex)
)

// ProxyBytecode assembles the 54 byte proxy init code for a raw
// implementation address. It fails unless impl is exactly 20 bytes.
func ProxyBytecode(impl []byte) ([]byte, error) {
	if len(impl) != common.AddressLength {
		return nil, invalid("implementation", fmt.Sprintf("expected %d bytes, got %d", common.AddressLength, len(impl)))
	}

	code := make([]byte, 0, ProxyBytecodeLength)
	code = append(code, proxyPrefix...)
	code = append(code, impl...)
	code = append(code, proxySuffix...)
	return code, nil
}

// BuildProxyBytecode is ProxyBytecode for an already typed address, which
// cannot have the wrong length.
func BuildProxyBytecode(impl common.Address) []byte {
	code, _ := ProxyBytecode(impl.Bytes())
	return code
}
