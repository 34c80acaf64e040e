// Command example selects a network from the built-in table and prints what a
// deployment tool would connect to.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Bidon15/deploynet"
)

func main() {
	name := deploynet.DefaultNetwork
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	profile, err := deploynet.Default().Get(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !profile.RemoteSigning() {
		fmt.Printf("%s: node at %s, network id %s\n", profile.Name, profile.Endpoint(), profile.NetworkID)
		return
	}

	provider, err := profile.Provider()
	if errors.Is(err, deploynet.ErrConfiguration) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", profile.Name, err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%s: signing as %s via %s, network id %s\n",
		profile.Name, provider.Address().Hex(), provider.URL(), profile.NetworkID)
}
