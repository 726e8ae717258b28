// Command summonctl predicts Summoner deployment addresses and inspects
// deployed DAOs from the command line.
package main

import "github.com/Bidon15/summonpredict/cmd/summonctl/cmd"

func main() {
	cmd.Execute()
}
