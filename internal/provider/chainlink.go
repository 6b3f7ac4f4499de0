package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/symbols"
)

const aggregatorABIJSON = `[{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`

var aggregatorABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		panic("failed to parse chainlink aggregator ABI: " + err.Error())
	}
	aggregatorABI = parsed
}

// ChainlinkOptions parameterise the on-chain Chainlink feed adapter.
type ChainlinkOptions struct {
	RPCURL string
	// Feeds maps "symbol/quote" (lowercase) to the aggregator contract address.
	Feeds   map[string]string
	Timeout time.Duration
}

// Chainlink reads spot prices from on-chain Chainlink price feeds via
// Ethereum RPC.
type Chainlink struct {
	opts      ChainlinkOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex

	decimalsMux sync.Mutex
	decimals    map[common.Address]int32
}

// NewChainlink builds the Chainlink feed adapter.
func NewChainlink(opts ChainlinkOptions, logger zerolog.Logger) *Chainlink {
	feeds := make(map[string]string, len(opts.Feeds))
	for pair, addr := range opts.Feeds {
		feeds[strings.ToLower(pair)] = addr
	}
	opts.Feeds = feeds

	return &Chainlink{
		opts:     opts,
		logger:   logger.With().Str("component", "provider_chainlink").Logger(),
		decimals: make(map[common.Address]int32),
	}
}

// Name implements Provider.
func (c *Chainlink) Name() string { return "Chainlink" }

// Fetch implements Provider.
func (c *Chainlink) Fetch(ctx context.Context, symbol, quote string) (decimal.Decimal, error) {
	if c.opts.RPCURL == "" {
		return decimal.Decimal{}, errors.New("ethereum rpc url not configured")
	}

	pair := strings.ToLower(symbol) + "/" + strings.ToLower(quote)
	feed, ok := c.opts.Feeds[pair]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no chainlink feed for %s", symbols.ErrUnsupportedSymbol, pair)
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}

	addr := common.HexToAddress(feed)

	answer, err := c.latestAnswer(ctx, client, addr)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if answer.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: non-positive answer %s", ErrMalformedResponse, answer)
	}

	scale, err := c.feedDecimals(ctx, client, addr)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.NewFromBigInt(answer, -scale), nil
}

func (c *Chainlink) latestAnswer(ctx context.Context, client *ethclient.Client, addr common.Address) (*big.Int, error) {
	payload, err := aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return nil, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, err
	}

	outputs, err := aggregatorABI.Unpack("latestRoundData", res)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(outputs) != 5 {
		return nil, fmt.Errorf("%w: unexpected latestRoundData arity", ErrMalformedResponse)
	}

	answer, ok := outputs[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: failed to decode answer", ErrMalformedResponse)
	}
	return answer, nil
}

func (c *Chainlink) feedDecimals(ctx context.Context, client *ethclient.Client, addr common.Address) (int32, error) {
	c.decimalsMux.Lock()
	cached, ok := c.decimals[addr]
	c.decimalsMux.Unlock()
	if ok {
		return cached, nil
	}

	payload, err := aggregatorABI.Pack("decimals")
	if err != nil {
		return 0, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return 0, err
	}

	outputs, err := aggregatorABI.Unpack("decimals", res)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(outputs) != 1 {
		return 0, fmt.Errorf("%w: unexpected decimals response", ErrMalformedResponse)
	}

	scale, ok := outputs[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: failed to decode decimals output", ErrMalformedResponse)
	}

	c.decimalsMux.Lock()
	c.decimals[addr] = int32(scale)
	c.decimalsMux.Unlock()

	return int32(scale), nil
}

func (c *Chainlink) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ Provider = (*Chainlink)(nil)
