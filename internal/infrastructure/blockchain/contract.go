package blockchain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
)

// Contract is one role's ABI bound to its address on one network
type Contract struct {
	Network entities.ChainNetwork
	Role    entities.ContractRole
	Address common.Address
	ABI     abi.ABI

	client *EVMClient
}

// NewContract binds parsed to address on client
func NewContract(network entities.ChainNetwork, role entities.ContractRole, address common.Address, parsed abi.ABI, client *EVMClient) *Contract {
	return &Contract{
		Network: network,
		Role:    role,
		Address: address,
		ABI:     parsed,
		client:  client,
	}
}

// Client returns the RPC client the contract calls through
func (c *Contract) Client() *EVMClient {
	return c.client
}

func parseABI(raw []byte) (abi.ABI, error) {
	return abi.JSON(bytes.NewReader(raw))
}

// Call packs method with args, runs it as a read-only call and unpacks the outputs
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	op := fmt.Sprintf("%s.%s.%s", c.Network, c.Role, method)
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, domainerrors.Validation(op, err.Error())
	}
	out, err := c.client.CallView(ctx, c.Address.Hex(), data)
	if err != nil {
		return nil, domainerrors.Transport(op, withRevertReason(c.ABI, method, err))
	}
	vals, err := c.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to decode result: %w", op, err)
	}
	return vals, nil
}

// CallValue returns the first output of method
func (c *Contract) CallValue(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	vals, err := c.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return vals[0], nil
}

// CallBool runs a view returning a single bool
func (c *Contract) CallBool(ctx context.Context, method string, args ...interface{}) (bool, error) {
	v, err := c.CallValue(ctx, method, args...)
	if err != nil {
		return false, err
	}
	value, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected bool result type %T", v)
	}
	return value, nil
}

// CallAddress runs a view returning a single address
func (c *Contract) CallAddress(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	v, err := c.CallValue(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	value, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address result type %T", v)
	}
	return value, nil
}

// CallString runs a view returning a single string
func (c *Contract) CallString(ctx context.Context, method string, args ...interface{}) (string, error) {
	v, err := c.CallValue(ctx, method, args...)
	if err != nil {
		return "", err
	}
	value, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected string result type %T", v)
	}
	return value, nil
}

// PastEvents returns the contract's logs between fromBlock and toBlock (nil means latest).
// eventName "" or AllEvents returns every log; any other name must exist in the ABI.
func (c *Contract) PastEvents(ctx context.Context, eventName string, fromBlock uint64, toBlock *uint64) ([]entities.ContractEvent, error) {
	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.Address},
	}
	if toBlock != nil {
		q.ToBlock = new(big.Int).SetUint64(*toBlock)
	}
	if eventName != "" && eventName != entities.AllEvents {
		ev, ok := c.ABI.Events[eventName]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", domainerrors.ErrUnsupportedEvent, eventName, c.Role)
		}
		q.Topics = [][]common.Hash{{ev.ID}}
	}

	logs, err := c.client.FilterLogs(ctx, q)
	if err != nil {
		return nil, domainerrors.Transport(fmt.Sprintf("%s.%s.getLogs", c.Network, c.Role), err)
	}

	events := make([]entities.ContractEvent, 0, len(logs))
	for _, l := range logs {
		events = append(events, c.decodeLog(l))
	}
	return events, nil
}

// decodeLog fills the raw fields, then the ABI-decoded ones when the log matches an event
func (c *Contract) decodeLog(l types.Log) entities.ContractEvent {
	out := entities.ContractEvent{
		Address:          l.Address.Hex(),
		BlockNumber:      l.BlockNumber,
		BlockHash:        l.BlockHash.Hex(),
		TransactionHash:  l.TxHash.Hex(),
		TransactionIndex: l.TxIndex,
		LogIndex:         l.Index,
		Removed:          l.Removed,
		Raw:              l,
	}
	if len(l.Topics) == 0 {
		return out
	}
	out.Signature = l.Topics[0].Hex()

	ev, err := c.ABI.EventByID(l.Topics[0])
	if err != nil {
		return out
	}

	values := make(map[string]interface{})
	if err := ev.Inputs.NonIndexed().UnpackIntoMap(values, l.Data); err != nil {
		return out
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return out
	}

	out.Event = ev.Name
	out.ReturnValues = values
	return out
}
