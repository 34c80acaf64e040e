package deploynet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// LookupFunc reads a variable from the process environment.
type LookupFunc func(key string) (string, bool)

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Provider signs transactions with a private key and dispatches RPC calls to
// a single endpoint.
type Provider struct {
	url     string
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewProvider builds a provider from a hex private key (optional 0x prefix)
// and an RPC URL. It performs no I/O.
func NewProvider(privateKeyHex, rpcURL string) (*Provider, error) {
	return newProvider(EnvDeployerPrivateKey, privateKeyHex, EnvEthereumURL, rpcURL)
}

// NewProviderFromEnv builds a provider from the named environment variables.
// Missing, empty or malformed values fail with a *ConfigurationError naming
// the variable. Values are used verbatim; surrounding whitespace is malformed.
// A nil lookup reads the process environment.
func NewProviderFromEnv(lookup LookupFunc, keyVar, urlVar string) (*Provider, error) {
	if lookup == nil {
		lookup = lookupEnv
	}
	key, err := requireEnv(lookup, keyVar)
	if err != nil {
		return nil, err
	}
	rawURL, err := requireEnv(lookup, urlVar)
	if err != nil {
		return nil, err
	}
	return newProvider(keyVar, key, urlVar, rawURL)
}

func requireEnv(lookup LookupFunc, name string) (string, error) {
	v, ok := lookup(name)
	if !ok {
		return "", &ConfigurationError{Variable: name, Reason: "is not set"}
	}
	if strings.TrimSpace(v) == "" {
		return "", &ConfigurationError{Variable: name, Reason: "is empty"}
	}
	if strings.TrimSpace(v) != v {
		return "", &ConfigurationError{Variable: name, Reason: "has surrounding whitespace"}
	}
	return v, nil
}

func newProvider(keyVar, keyHex, urlVar, rawURL string) (*Provider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, &ConfigurationError{Variable: keyVar, Reason: "is not a valid private key", Err: err}
	}
	if err := checkRPCURL(rawURL); err != nil {
		return nil, &ConfigurationError{Variable: urlVar, Reason: "is not a valid RPC URL", Err: err}
	}
	return &Provider{
		url:     rawURL,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func checkRPCURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// URL returns the RPC endpoint.
func (p *Provider) URL() string {
	return p.url
}

// Address returns the account derived from the private key.
func (p *Provider) Address() common.Address {
	return p.address
}

// Dial connects to the provider's RPC endpoint.
func (p *Provider) Dial(ctx context.Context) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", p.url, err)
	}
	return client, nil
}

// TransactOpts returns keyed transactor options for chainID.
func (p *Provider) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil {
		return nil, errors.New("chain id is required")
	}
	return bind.NewKeyedTransactorWithChainID(p.key, chainID)
}

// SignTx signs tx for chainID with the provider's key.
func (p *Provider) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if chainID == nil {
		return nil, errors.New("chain id is required")
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// providerSlot caches the provider of one remote-signing profile. Failures
// are not cached so a corrected environment is picked up on the next call.
type providerSlot struct {
	lookup LookupFunc

	mu       sync.Mutex
	provider *Provider
}

func (s *providerSlot) get(keyVar, urlVar string) (*Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider != nil {
		return s.provider, nil
	}
	p, err := NewProviderFromEnv(s.lookup, keyVar, urlVar)
	if err != nil {
		return nil, err
	}
	s.provider = p
	return p, nil
}
