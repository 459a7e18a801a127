package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/infrastructure/blockchain"
	"chain-gateway.backend/internal/usecases"
)

const nftABI = `[
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getHash","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"isCollaborator","stateMutability":"view","inputs":[{"name":"hash","type":"string"},{"name":"a","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"isSingleCollaborator","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"},{"name":"a","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":true,"name":"tokenId","type":"uint256"}]}
]`

var (
	alice = common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	bob   = common.HexToAddress("0xAbCdEf0000000000000000000000000000000002")
	carol = common.HexToAddress("0xAbCdEf0000000000000000000000000000000003")
)

func mustNFTABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(nftABI))
	require.NoError(t, err)
	return parsed
}

// fakeNFT answers view calls of one NFT deployment
type fakeNFT struct {
	abi           abi.ABI
	owner         common.Address
	ownerErr      error
	hash          string
	hashErr       error
	collaborators map[common.Address]bool
	failAll       bool

	mu    sync.Mutex
	calls map[string]int
}

func newFakeNFT(t *testing.T) *fakeNFT {
	return &fakeNFT{abi: mustNFTABI(t), collaborators: map[common.Address]bool{}, calls: map[string]int{}}
}

func (f *fakeNFT) callView(_ context.Context, _ string, data []byte) ([]byte, error) {
	method, err := f.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls[method.Name]++
	f.mu.Unlock()

	if f.failAll {
		return nil, errors.New("execution reverted")
	}
	switch method.Name {
	case "ownerOf":
		if f.ownerErr != nil {
			return nil, f.ownerErr
		}
		return method.Outputs.Pack(f.owner)
	case "getHash":
		if f.hashErr != nil {
			return nil, f.hashErr
		}
		return method.Outputs.Pack(f.hash)
	case "isCollaborator":
		hash := args[0].(string)
		addr := args[1].(common.Address)
		return method.Outputs.Pack(hash == f.hash && f.collaborators[addr])
	case "isSingleCollaborator":
		addr := args[1].(common.Address)
		return method.Outputs.Pack(f.collaborators[addr])
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func (f *fakeNFT) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeNFT) contract(network entities.ChainNetwork) *blockchain.Contract {
	client := blockchain.NewEVMClientWithCallView(big.NewInt(1), f.callView)
	return blockchain.NewContract(network, entities.ContractNFT, common.HexToAddress("0x4444444444444444444444444444444444444444"), f.abi, client)
}

type fakeContractRegistry struct {
	contracts map[entities.ChainNetwork]*blockchain.Contract
	err       error
}

func (r *fakeContractRegistry) Contract(_ context.Context, network entities.ChainNetwork, role entities.ContractRole) (*blockchain.Contract, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.contracts[network]
	if !ok || role != entities.ContractNFT {
		return nil, domainerrors.ErrUnsupportedContract
	}
	return c, nil
}

func newResolverFixture(t *testing.T) (*usecases.OwnershipResolver, *fakeNFT, *fakeNFT) {
	t.Helper()
	sidechain := newFakeNFT(t)
	mainnet := newFakeNFT(t)
	reg := &fakeContractRegistry{contracts: map[entities.ChainNetwork]*blockchain.Contract{
		entities.NetworkMainnetSidechain: sidechain.contract(entities.NetworkMainnetSidechain),
		entities.NetworkMainnet:          mainnet.contract(entities.NetworkMainnet),
	}}
	return usecases.NewOwnershipResolver(reg), sidechain, mainnet
}

func TestOwnershipResolver_MainnetOwnerCaseInsensitive(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.owner = carol
	mainnet.owner = alice

	ok, err := resolver.AreAddressesCollaborator(context.Background(), []string{strings.ToLower(alice.Hex())}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.AreAddressesCollaborator(context.Background(), []string{strings.ToUpper(alice.Hex()[2:])}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok, "an address without 0x prefix is not the owner's address")
}

func TestOwnershipResolver_SidechainCollaborator(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.owner = carol
	mainnet.owner = carol
	sidechain.hash = "QmHash"
	sidechain.collaborators[bob] = true

	ok, err := resolver.AreAddressesCollaborator(context.Background(), []string{alice.Hex(), bob.Hex()}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.AreAddressesCollaborator(context.Background(), []string{bob.Hex()}, "QmOther", big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnershipResolver_ChecksEveryAddress(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.owner = alice
	mainnet.owner = carol

	addresses := []string{alice.Hex(), bob.Hex(), carol.Hex()}
	ok, err := resolver.AreAddressesSingleCollaborator(context.Background(), addresses, big.NewInt(3))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 3, sidechain.count("isSingleCollaborator"))
	assert.Equal(t, 3, sidechain.count("ownerOf"))
	assert.Equal(t, 3, mainnet.count("ownerOf"))
	assert.Equal(t, 0, mainnet.count("isSingleCollaborator"))
}

func TestOwnershipResolver_FailedChecksCountAsFalse(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.failAll = true
	mainnet.owner = bob

	ok, err := resolver.AreAddressesCollaborator(context.Background(), []string{bob.Hex()}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)

	mainnet.ownerErr = errors.New("nonexistent token")
	ok, err = resolver.AreAddressesCollaborator(context.Background(), []string{bob.Hex()}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnershipResolver_NonHexAddressIsNotACollaborator(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.owner = carol
	mainnet.owner = carol
	sidechain.hash = "QmHash"
	sidechain.collaborators[common.Address{}] = true

	ok, err := resolver.AreAddressesCollaborator(context.Background(), []string{"not-an-address"}, "QmHash", big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, sidechain.count("isCollaborator"))
	assert.Equal(t, 1, sidechain.count("ownerOf"))
	assert.Equal(t, 1, mainnet.count("ownerOf"))

	ok, err = resolver.AreAddressesSingleCollaborator(context.Background(), []string{"0x1234"}, big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, sidechain.count("isSingleCollaborator"))
}

func TestOwnershipResolver_EmptyAddresses(t *testing.T) {
	resolver, sidechain, _ := newResolverFixture(t)
	ok, err := resolver.AreAddressesSingleCollaborator(context.Background(), nil, big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, sidechain.count("ownerOf"))
}

func TestOwnershipResolver_IsCollaboratorUsesTokenHash(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.hash = "QmToken"
	sidechain.owner = carol
	mainnet.owner = carol
	sidechain.collaborators[alice] = true

	ok, err := resolver.IsCollaborator(context.Background(), big.NewInt(5), alice.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, sidechain.count("getHash"))

	sidechain.hashErr = errors.New("execution reverted")
	ok, err = resolver.IsCollaborator(context.Background(), big.NewInt(5), alice.Hex())
	require.Error(t, err)
	assert.False(t, ok)
}

func TestOwnershipResolver_IsSingleCollaborator(t *testing.T) {
	resolver, sidechain, mainnet := newResolverFixture(t)
	sidechain.owner = carol
	mainnet.owner = carol
	sidechain.collaborators[bob] = true

	ok, err := resolver.IsSingleCollaborator(context.Background(), big.NewInt(2), bob.Hex())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.IsSingleCollaborator(context.Background(), big.NewInt(2), alice.Hex())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOwnershipResolver_RegistryFailure(t *testing.T) {
	loadErr := errors.New("no addresses resolved")
	resolver := usecases.NewOwnershipResolver(&fakeContractRegistry{err: loadErr})

	ok, err := resolver.AreAddressesCollaborator(context.Background(), []string{alice.Hex()}, "h", big.NewInt(1))
	require.ErrorIs(t, err, loadErr)
	assert.False(t, ok)

	ok, err = resolver.IsCollaborator(context.Background(), big.NewInt(1), alice.Hex())
	require.ErrorIs(t, err, loadErr)
	assert.False(t, ok)

	ok, err = resolver.IsSingleCollaborator(context.Background(), big.NewInt(1), alice.Hex())
	require.ErrorIs(t, err, loadErr)
	assert.False(t, ok)
}
