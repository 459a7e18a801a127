package usecases_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/infrastructure/blockchain"
	"chain-gateway.backend/internal/usecases"
)

type fakeChainRegistry struct {
	set    *blockchain.ChainSet
	err    error
	loaded bool
	loads  int
}

func (r *fakeChainRegistry) Load(context.Context) (*blockchain.ChainSet, error) {
	r.loads++
	return r.set, r.err
}

func (r *fakeChainRegistry) Loaded() (*blockchain.ChainSet, bool) {
	if !r.loaded {
		return nil, false
	}
	return r.set, true
}

func chainSetWithLogs(t *testing.T, filter func(context.Context, ethereum.FilterQuery) ([]types.Log, error)) *blockchain.ChainSet {
	t.Helper()
	client := blockchain.NewEVMClientWithStubs(big.NewInt(1), nil, filter)
	nft := blockchain.NewContract(entities.NetworkPolygon, entities.ContractNFT, common.HexToAddress("0x4444444444444444444444444444444444444444"), mustNFTABI(t), client)
	return &blockchain.ChainSet{
		Contracts: map[entities.ChainNetwork]map[entities.ContractRole]*blockchain.Contract{
			entities.NetworkPolygon: {entities.ContractNFT: nft},
		},
		WebsocketURLs: map[entities.ChainNetwork]string{},
	}
}

func TestChainEvents_GetPastEventsDefaults(t *testing.T) {
	parsed := mustNFTABI(t)
	transfer := parsed.Events["Transfer"]
	set := chainSetWithLogs(t, func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
		assert.Equal(t, int64(0), q.FromBlock.Int64())
		assert.Nil(t, q.ToBlock)
		assert.Empty(t, q.Topics)
		return []types.Log{{
			Topics:      []common.Hash{transfer.ID, common.Hash{}, common.BytesToHash(alice.Bytes()), common.BigToHash(big.NewInt(4))},
			BlockNumber: 99,
		}}, nil
	})
	uc := usecases.NewChainEventsUsecase(&fakeChainRegistry{set: set, loaded: true})

	events := uc.GetPastEvents(context.Background(), usecases.PastEventsQuery{
		ChainName:    entities.NetworkPolygon,
		ContractName: entities.ContractNFT,
	})
	require.Len(t, events, 1)
	assert.Equal(t, "Transfer", events[0].Event)
	assert.Equal(t, alice, events[0].ReturnValues["to"])
	assert.Equal(t, uint64(99), events[0].BlockNumber)
}

func TestChainEvents_GetPastEventsRange(t *testing.T) {
	parsed := mustNFTABI(t)
	to := uint64(50)
	set := chainSetWithLogs(t, func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
		assert.Equal(t, int64(10), q.FromBlock.Int64())
		assert.Equal(t, int64(50), q.ToBlock.Int64())
		assert.Equal(t, [][]common.Hash{{parsed.Events["Transfer"].ID}}, q.Topics)
		return nil, nil
	})
	uc := usecases.NewChainEventsUsecase(&fakeChainRegistry{set: set, loaded: true})

	events := uc.GetPastEvents(context.Background(), usecases.PastEventsQuery{
		ChainName:    entities.NetworkPolygon,
		ContractName: entities.ContractNFT,
		EventName:    "Transfer",
		FromBlock:    10,
		ToBlock:      &to,
	})
	require.NotNil(t, events)
	assert.Empty(t, events)
}

func TestChainEvents_GetPastEventsFailuresReturnEmpty(t *testing.T) {
	set := chainSetWithLogs(t, func(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
		return nil, errors.New("query returned more than 10000 results")
	})

	cases := map[string]struct {
		registry *fakeChainRegistry
		query    usecases.PastEventsQuery
	}{
		"load error": {
			registry: &fakeChainRegistry{err: errors.New("dns failure")},
			query:    usecases.PastEventsQuery{ChainName: entities.NetworkPolygon, ContractName: entities.ContractNFT},
		},
		"unknown chain": {
			registry: &fakeChainRegistry{set: set, loaded: true},
			query:    usecases.PastEventsQuery{ChainName: "ropsten", ContractName: entities.ContractNFT},
		},
		"unknown contract": {
			registry: &fakeChainRegistry{set: set, loaded: true},
			query:    usecases.PastEventsQuery{ChainName: entities.NetworkPolygon, ContractName: "Bogus"},
		},
		"unknown event": {
			registry: &fakeChainRegistry{set: set, loaded: true},
			query:    usecases.PastEventsQuery{ChainName: entities.NetworkPolygon, ContractName: entities.ContractNFT, EventName: "Nope"},
		},
		"rpc error": {
			registry: &fakeChainRegistry{set: set, loaded: true},
			query:    usecases.PastEventsQuery{ChainName: entities.NetworkPolygon, ContractName: entities.ContractNFT},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			events := usecases.NewChainEventsUsecase(tc.registry).GetPastEvents(context.Background(), tc.query)
			require.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestChainEvents_UnknownTargetSkipsRegistry(t *testing.T) {
	registry := &fakeChainRegistry{err: errors.New("must not be reached")}
	uc := usecases.NewChainEventsUsecase(registry)

	events := uc.GetPastEvents(context.Background(), usecases.PastEventsQuery{ChainName: "ropsten", ContractName: entities.ContractNFT})
	assert.Empty(t, events)
	events = uc.GetPastEvents(context.Background(), usecases.PastEventsQuery{ChainName: entities.NetworkPolygon, ContractName: "Bogus"})
	assert.Empty(t, events)
	assert.Equal(t, 0, registry.loads)

	_, err := uc.MakeWebsocketContract(context.Background(), "ropsten", entities.ContractNFT)
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedChain)
	_, err = uc.MakeWebsocketContract(context.Background(), entities.NetworkMainnet, "Bogus")
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedContract)
}

func TestChainEvents_MakeWebsocketContractRequiresLoad(t *testing.T) {
	uc := usecases.NewChainEventsUsecase(&fakeChainRegistry{})
	_, err := uc.MakeWebsocketContract(context.Background(), entities.NetworkPolygon, entities.ContractNFT)
	require.ErrorIs(t, err, domainerrors.ErrRegistryNotLoaded)

	set := chainSetWithLogs(t, nil)
	uc = usecases.NewChainEventsUsecase(&fakeChainRegistry{set: set, loaded: true})
	_, err = uc.MakeWebsocketContract(context.Background(), entities.NetworkPolygon, entities.ContractNFT)
	require.ErrorIs(t, err, domainerrors.ErrUnsupportedChain)
}

func TestChainEvents_GetBlockchain(t *testing.T) {
	set := chainSetWithLogs(t, nil)
	uc := usecases.NewChainEventsUsecase(&fakeChainRegistry{set: set})
	got, err := uc.GetBlockchain(context.Background())
	require.NoError(t, err)
	assert.Same(t, set, got)

	uc = usecases.NewChainEventsUsecase(&fakeChainRegistry{err: errors.New("boom")})
	_, err = uc.GetBlockchain(context.Background())
	require.EqualError(t, err, "boom")
}
