package registry

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const summonerABIJSON = `[
	{"inputs":[],"name":"implementation","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"","type":"uint256"}],"name":"daos","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"summoner","type":"address"},{"indexed":true,"name":"dao","type":"address"}],"name":"NewDAO","type":"event"}
]`

const molochABIJSON = `[
	{"inputs":[],"name":"sharesImpl","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"badgesImpl","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"lootImpl","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"SUMMONER","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const daoABIJSON = `[
	{"inputs":[],"name":"shares","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"badges","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"loot","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// Getter names on the DAO implementation, indexed like create2.DependentNames.
var implGetters = [...]string{"sharesImpl", "badgesImpl", "lootImpl"}

// Parsed contract ABIs.
var (
	SummonerABI = mustParseABI(summonerABIJSON)
	MolochABI   = mustParseABI(molochABIJSON)
	DAOABI      = mustParseABI(daoABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
