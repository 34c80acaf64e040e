// Package deploynet provides the network configuration table used by the
// contract deployment tooling: a lookup from environment name to the
// connection parameters of one deployment target.
package deploynet

import (
	"fmt"
	"net"
	"strconv"
)

// Environment variables read by the built-in remote-signing profile.
const (
	EnvDeployerPrivateKey = "ETHEREUM_DEPLOYER_PRIVATE_KEY"
	EnvEthereumURL        = "ETHEREUM_URL"
)

// Built-in network names.
const (
	NetworkMain        = "main"
	NetworkDevelopment = "development"
	NetworkTestnet     = "testnet"
	NetworkParity      = "parity"

	// DefaultNetwork is selected when the caller does not name one.
	DefaultNetwork = NetworkDevelopment
)

// NetworkID identifies a chain. AnyNetwork accepts any chain id; the matching
// itself is left to the deployment tool.
type NetworkID string

// AnyNetwork is the wildcard network id.
const AnyNetwork NetworkID = "*"

// IsWildcard reports whether id matches any chain.
func (id NetworkID) IsWildcard() bool {
	return id == AnyNetwork
}

// Valid reports whether id is the wildcard or a decimal chain id.
func (id NetworkID) Valid() bool {
	if id.IsWildcard() {
		return true
	}
	_, err := id.ChainID()
	return err == nil
}

// ChainID parses a specific network id. It fails for the wildcard.
func (id NetworkID) ChainID() (uint64, error) {
	if id == "" || id.IsWildcard() {
		return 0, fmt.Errorf("network id %q is not a chain id", string(id))
	}
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("network id %q is not a chain id: %w", string(id), err)
	}
	return n, nil
}

// Profile is one named deployment target.
//
// A direct-connection profile sets Host and Port and leaves signing to the
// connected node. A remote-signing profile sets PrivateKeyEnv and URLEnv;
// its Provider is built from those variables on first use.
type Profile struct {
	Name      string
	Host      string
	Port      int
	NetworkID NetworkID

	PrivateKeyEnv string
	URLEnv        string

	slot *providerSlot
}

// RemoteSigning reports whether the profile signs locally with a private key.
func (p Profile) RemoteSigning() bool {
	return p.PrivateKeyEnv != "" && p.URLEnv != ""
}

// Endpoint returns the RPC URL of a direct-connection profile, or "" for a
// remote-signing profile whose URL is only known once its provider is built.
func (p Profile) Endpoint() string {
	if p.RemoteSigning() || p.Host == "" {
		return ""
	}
	return "http://" + net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Provider returns the signing provider of a remote-signing profile,
// constructing it on first call. Direct profiles return ErrNoProvider.
func (p Profile) Provider() (*Provider, error) {
	if !p.RemoteSigning() {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, p.Name)
	}
	if p.slot == nil {
		return NewProviderFromEnv(lookupEnv, p.PrivateKeyEnv, p.URLEnv)
	}
	return p.slot.get(p.PrivateKeyEnv, p.URLEnv)
}

func (p Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrIncompleteProfile)
	}
	if p.RemoteSigning() {
		if p.Host != "" || p.Port != 0 {
			return fmt.Errorf("%w: %s", ErrMixedProfile, p.Name)
		}
		return nil
	}
	if p.Host == "" || p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%w: %s", ErrIncompleteProfile, p.Name)
	}
	return nil
}
