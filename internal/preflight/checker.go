// Package preflight provides pre-deployment checks against a network profile.
package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Bidon15/deploynet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
)

// DefaultTimeout is the default timeout for RPC calls.
const DefaultTimeout = 10 * time.Second

// CheckName identifies a specific pre-flight check.
type CheckName string

const (
	// CheckRPCReachable verifies the network's RPC endpoint answers.
	CheckRPCReachable CheckName = "rpc_reachable"
	// CheckNetworkID compares the profile's network id with the remote chain id.
	CheckNetworkID CheckName = "network_id"
	// CheckDeployerBalance verifies the deployer has sufficient funds.
	CheckDeployerBalance CheckName = "deployer_balance"
)

// CheckResult represents the result of a single pre-flight check.
type CheckResult struct {
	Name    CheckName              `json:"name"`
	Passed  bool                   `json:"passed"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Report contains the results of all checks for one network.
type Report struct {
	Network            string        `json:"network"`
	Endpoint           string        `json:"endpoint"`
	OK                 bool          `json:"ok"`
	Checks             []CheckResult `json:"checks"`
	ChainID            uint64        `json:"chain_id,omitempty"`
	DeployerAddress    string        `json:"deployer_address,omitempty"`
	RequiredFundingETH string        `json:"required_funding_eth,omitempty"`
	CurrentBalanceETH  string        `json:"current_balance_eth,omitempty"`
}

// Checker performs pre-flight validation checks.
type Checker struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker creates a new pre-flight checker. A nil logger uses slog.Default.
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// WithTimeout sets a custom timeout for RPC calls.
func (c *Checker) WithTimeout(timeout time.Duration) *Checker {
	c.timeout = timeout
	return c
}

// RunChecks dials the profile's endpoint and runs all checks. Failing checks
// are reported in the Report; an error is returned only when the profile
// itself cannot be used, e.g. a *deploynet.ConfigurationError from its
// provider.
func (c *Checker) RunChecks(ctx context.Context, profile deploynet.Profile) (*Report, error) {
	report := &Report{
		Network: profile.Name,
		OK:      true,
		Checks:  make([]CheckResult, 0, 3),
	}

	dial := func(ctx context.Context) (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, report.Endpoint)
	}
	var deployer *common.Address
	if profile.RemoteSigning() {
		provider, err := profile.Provider()
		if err != nil {
			return nil, err
		}
		report.Endpoint = provider.URL()
		addr := provider.Address()
		deployer = &addr
		report.DeployerAddress = addr.Hex()
		dial = provider.Dial
	} else {
		report.Endpoint = profile.Endpoint()
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("running pre-flight checks",
		slog.String("network", profile.Name),
		slog.String("endpoint", report.Endpoint),
	)

	client, chainID, reachable := c.checkReachable(rpcCtx, report.Endpoint, dial)
	report.Checks = append(report.Checks, reachable)
	if !reachable.Passed {
		report.OK = false
		return report, nil
	}
	defer client.Close()
	report.ChainID = chainID

	idResult := c.checkNetworkID(profile.NetworkID, chainID)
	report.Checks = append(report.Checks, idResult)
	if !idResult.Passed {
		report.OK = false
	}

	if deployer != nil {
		requiredWei := requiredFunding(chainID)
		report.RequiredFundingETH = weiToETHString(requiredWei)

		balanceResult := c.checkDeployerBalance(rpcCtx, client, *deployer, requiredWei)
		report.Checks = append(report.Checks, balanceResult)
		if !balanceResult.Passed {
			report.OK = false
		}
		if haveETH, ok := balanceResult.Details["have_eth"].(string); ok {
			report.CurrentBalanceETH = haveETH
		}
	}

	c.logger.Info("pre-flight checks finished",
		slog.String("network", profile.Name),
		slog.Bool("ok", report.OK),
		slog.Uint64("chain_id", chainID),
	)
	return report, nil
}

// checkReachable dials the endpoint and fetches the chain id.
func (c *Checker) checkReachable(ctx context.Context, rpcURL string, dial func(context.Context) (*ethclient.Client, error)) (*ethclient.Client, uint64, CheckResult) {
	result := CheckResult{
		Name: CheckRPCReachable,
	}

	client, err := dial(ctx)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to connect to RPC: %v", err)
		result.Details = map[string]interface{}{
			"error": err.Error(),
		}
		return nil, 0, result
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		c.logger.Warn("rpc endpoint unreachable",
			slog.String("endpoint", rpcURL),
			slog.String("error", err.Error()),
		)
		result.Message = fmt.Sprintf("RPC connection failed: %v", err)
		result.Details = map[string]interface{}{
			"error": err.Error(),
		}
		return nil, 0, result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Connected to %s (%s)", rpcURL, GetNetworkName(chainID.Uint64()))
	return client, chainID.Uint64(), result
}

// checkNetworkID compares a specific network id with the remote chain id.
// The wildcard always passes.
func (c *Checker) checkNetworkID(id deploynet.NetworkID, actual uint64) CheckResult {
	result := CheckResult{
		Name: CheckNetworkID,
		Details: map[string]interface{}{
			"network_id": string(id),
			"chain_id":   actual,
		},
	}

	if id.IsWildcard() {
		result.Passed = true
		result.Message = fmt.Sprintf("Network id %q accepts chain %d", string(id), actual)
		return result
	}

	expected, err := id.ChainID()
	if err != nil {
		result.Message = err.Error()
		return result
	}
	if expected != actual {
		result.Message = fmt.Sprintf("Chain ID mismatch: expected %d, got %d", expected, actual)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Chain ID %d confirmed", actual)
	return result
}

// checkDeployerBalance verifies the deployer has sufficient funds.
func (c *Checker) checkDeployerBalance(ctx context.Context, client *ethclient.Client, deployer common.Address, requiredWei *big.Int) CheckResult {
	result := CheckResult{
		Name: CheckDeployerBalance,
	}

	balance, err := client.BalanceAt(ctx, deployer, nil)
	if err != nil {
		result.Message = fmt.Sprintf("Failed to get deployer balance: %v", err)
		result.Details = map[string]interface{}{
			"error": err.Error(),
		}
		return result
	}

	haveETH := weiToETHString(balance)
	needETH := weiToETHString(requiredWei)

	result.Details = map[string]interface{}{
		"have_wei": balance.String(),
		"need_wei": requiredWei.String(),
		"have_eth": haveETH,
		"need_eth": needETH,
	}

	if balance.Cmp(requiredWei) < 0 {
		result.Message = fmt.Sprintf("Insufficient deployer balance: have %s ETH, need %s ETH", haveETH, needETH)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Deployer has sufficient balance: %s ETH", haveETH)
	return result
}

// requiredFunding returns the required deployer funding in wei for a chain.
func requiredFunding(chainID uint64) *big.Int {
	switch chainID {
	case 1:
		return new(big.Int).Mul(big.NewInt(5), big.NewInt(params.Ether))
	default:
		return big.NewInt(params.Ether)
	}
}

// weiToETHString converts wei to a human-readable ETH string.
func weiToETHString(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	weiFloat := new(big.Float).SetInt(wei)
	ethFloat := new(big.Float).Quo(weiFloat, big.NewFloat(params.Ether))
	return ethFloat.Text('f', 4)
}

// GetNetworkName returns a human-readable name for a chain ID.
func GetNetworkName(chainID uint64) string {
	switch chainID {
	case 1:
		return "Ethereum Mainnet"
	case 11155111:
		return "Sepolia"
	case 17000:
		return "Holesky"
	case 1337, 5777:
		return "Ganache"
	case 31337:
		return "Anvil"
	default:
		return fmt.Sprintf("Chain %d", chainID)
	}
}
