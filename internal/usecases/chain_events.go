package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/infrastructure/blockchain"
	"chain-gateway.backend/pkg/logger"
)

// ChainRegistry exposes the loaded chain configuration
type ChainRegistry interface {
	Load(ctx context.Context) (*blockchain.ChainSet, error)
	Loaded() (*blockchain.ChainSet, bool)
}

// PastEventsQuery selects historical logs of one contract. Zero values mean every
// event from the genesis block up to the latest block.
type PastEventsQuery struct {
	ChainName    entities.ChainNetwork
	ContractName entities.ContractRole
	EventName    string
	FromBlock    uint64
	ToBlock      *uint64
}

// ChainEventsUsecase serves contract history and live connections
type ChainEventsUsecase struct {
	registry ChainRegistry
}

// NewChainEventsUsecase creates a new chain events usecase
func NewChainEventsUsecase(registry ChainRegistry) *ChainEventsUsecase {
	return &ChainEventsUsecase{registry: registry}
}

// GetBlockchain waits for the chain configuration and returns it
func (u *ChainEventsUsecase) GetBlockchain(ctx context.Context) (*blockchain.ChainSet, error) {
	return u.registry.Load(ctx)
}

// GetPastEvents returns the matching logs, or an empty slice on any failure
func (u *ChainEventsUsecase) GetPastEvents(ctx context.Context, q PastEventsQuery) []entities.ContractEvent {
	if q.EventName == "" {
		q.EventName = entities.AllEvents
	}
	fields := []zap.Field{
		zap.String("chain", string(q.ChainName)),
		zap.String("contract", string(q.ContractName)),
		zap.String("event", q.EventName),
	}

	if err := validateTarget(q.ChainName, q.ContractName); err != nil {
		logger.Error(ctx, "Unknown contract", append(fields, zap.Error(err))...)
		return []entities.ContractEvent{}
	}
	set, err := u.registry.Load(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to load chain registry", append(fields, zap.Error(err))...)
		return []entities.ContractEvent{}
	}
	contract, err := set.Contract(q.ChainName, q.ContractName)
	if err != nil {
		logger.Error(ctx, "Unknown contract", append(fields, zap.Error(err))...)
		return []entities.ContractEvent{}
	}
	events, err := contract.PastEvents(ctx, q.EventName, q.FromBlock, q.ToBlock)
	if err != nil {
		logger.Error(ctx, "Failed to get past events", append(fields, zap.Error(err))...)
		return []entities.ContractEvent{}
	}
	return events
}

// MakeWebsocketContract opens a dedicated websocket connection bound to one contract.
// The chain configuration must already be loaded. The caller owns the connection and
// ends it with Listener.Disconnect.
func (u *ChainEventsUsecase) MakeWebsocketContract(ctx context.Context, chainName entities.ChainNetwork, contractName entities.ContractRole) (*blockchain.WebsocketContract, error) {
	if err := validateTarget(chainName, contractName); err != nil {
		return nil, err
	}
	set, ok := u.registry.Loaded()
	if !ok {
		return nil, domainerrors.ErrRegistryNotLoaded
	}
	return set.DialWebsocketContract(ctx, chainName, contractName)
}

func validateTarget(network entities.ChainNetwork, role entities.ContractRole) error {
	if !entities.IsKnownNetwork(network) {
		return fmt.Errorf("%w: %q", domainerrors.ErrUnsupportedChain, network)
	}
	if !entities.IsKnownContractRole(role) {
		return fmt.Errorf("%w: %q", domainerrors.ErrUnsupportedContract, role)
	}
	return nil
}
