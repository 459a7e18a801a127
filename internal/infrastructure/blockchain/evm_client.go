package blockchain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

// EVMClient provides read-only EVM access over one JSON-RPC endpoint
type EVMClient struct {
	client *ethclient.Client
	rpcURL string

	mu      sync.Mutex
	chainID *big.Int

	// test seams allow deterministic unit tests without network sockets.
	testCallView   func(ctx context.Context, to string, data []byte) ([]byte, error)
	testFilterLogs func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// NewEVMClient creates a client for rpcURL. HTTP endpoints are not contacted until
// the first call; websocket endpoints connect immediately.
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}
	return &EVMClient{
		client: client,
		rpcURL: rpcURL,
	}, nil
}

func newEVMClientFromClient(client *ethclient.Client, rpcURL string) *EVMClient {
	return &EVMClient{client: client, rpcURL: rpcURL}
}

// NewEVMClientWithCallView creates an EVM client that uses an injected CallView implementation.
// This is intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithCallView(chainID *big.Int, callViewFn func(ctx context.Context, to string, data []byte) ([]byte, error)) *EVMClient {
	return NewEVMClientWithStubs(chainID, callViewFn, nil)
}

// NewEVMClientWithStubs is NewEVMClientWithCallView plus an injected log filter
func NewEVMClientWithStubs(
	chainID *big.Int,
	callViewFn func(ctx context.Context, to string, data []byte) ([]byte, error),
	filterLogsFn func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error),
) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:        chainID,
		testCallView:   callViewFn,
		testFilterLogs: filterLogsFn,
	}
}

// RPCURL returns the endpoint the client was dialed with
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// ChainID returns the chain ID, asking the node on first use
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := getClientChainID(c.client, ctx)
	if err != nil {
		return nil, err
	}
	c.chainID = id
	return id, nil
}

// CallView executes a read-only contract call against the latest block
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.testCallView != nil {
		return c.testCallView(ctx, to, data)
	}
	addr := common.HexToAddress(to)
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	return c.client.CallContract(ctx, msg, nil)
}

// FilterLogs returns historical logs matching q
func (c *EVMClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if c.testFilterLogs != nil {
		return c.testFilterLogs(ctx, q)
	}
	return c.client.FilterLogs(ctx, q)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
