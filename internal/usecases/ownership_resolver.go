package usecases

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/internal/infrastructure/blockchain"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/metrics"
)

// ContractRegistry hands out contract handles once the chain configuration is loaded
type ContractRegistry interface {
	Contract(ctx context.Context, network entities.ChainNetwork, role entities.ContractRole) (*blockchain.Contract, error)
}

// OwnershipResolver decides whether addresses may edit a token: a collaborator on the
// sidechain NFT contract, or the token owner on the sidechain or on mainnet.
type OwnershipResolver struct {
	registry ContractRegistry
}

// NewOwnershipResolver creates a new ownership resolver
func NewOwnershipResolver(registry ContractRegistry) *OwnershipResolver {
	return &OwnershipResolver{registry: registry}
}

type collaboratorCheck func(ctx context.Context, nft *blockchain.Contract, address common.Address) (bool, error)

// IsCollaborator looks up the token's content hash, then checks address against it
func (u *OwnershipResolver) IsCollaborator(ctx context.Context, tokenID *big.Int, address string) (bool, error) {
	nft, err := u.registry.Contract(ctx, entities.NetworkMainnetSidechain, entities.ContractNFT)
	if err != nil {
		return false, err
	}
	hash, err := nft.CallString(ctx, "getHash", tokenID)
	if err != nil {
		return false, err
	}
	return u.AreAddressesCollaborator(ctx, []string{address}, hash, tokenID)
}

// IsSingleCollaborator checks address against the token's single-token collaborators
func (u *OwnershipResolver) IsSingleCollaborator(ctx context.Context, tokenID *big.Int, address string) (bool, error) {
	return u.AreAddressesSingleCollaborator(ctx, []string{address}, tokenID)
}

// AreAddressesCollaborator reports whether any address collaborates on hash or owns tokenID
func (u *OwnershipResolver) AreAddressesCollaborator(ctx context.Context, addresses []string, hash string, tokenID *big.Int) (bool, error) {
	return u.resolve(ctx, addresses, tokenID, "isCollaborator", func(ctx context.Context, nft *blockchain.Contract, address common.Address) (bool, error) {
		return nft.CallBool(ctx, "isCollaborator", hash, address)
	})
}

// AreAddressesSingleCollaborator reports whether any address is a single-token
// collaborator on tokenID or owns it
func (u *OwnershipResolver) AreAddressesSingleCollaborator(ctx context.Context, addresses []string, tokenID *big.Int) (bool, error) {
	return u.resolve(ctx, addresses, tokenID, "isSingleCollaborator", func(ctx context.Context, nft *blockchain.Contract, address common.Address) (bool, error) {
		return nft.CallBool(ctx, "isSingleCollaborator", tokenID, address)
	})
}

// resolve walks addresses in order. The three checks of one address run together and
// every address is checked; a failed check counts as false.
func (u *OwnershipResolver) resolve(ctx context.Context, addresses []string, tokenID *big.Int, checkName string, check collaboratorCheck) (bool, error) {
	sidechainNFT, err := u.registry.Contract(ctx, entities.NetworkMainnetSidechain, entities.ContractNFT)
	if err != nil {
		return false, err
	}
	mainnetNFT, err := u.registry.Contract(ctx, entities.NetworkMainnet, entities.ContractNFT)
	if err != nil {
		return false, err
	}

	var isCollaborator, isSidechainOwner, isMainnetOwner bool
	for _, address := range addresses {
		var c, o1, o2 bool
		var g errgroup.Group
		g.Go(func() error {
			c = u.runCheck(ctx, checkName, address, func() (bool, error) {
				if !common.IsHexAddress(address) {
					return false, domainerrors.Validation(checkName, "not a hex address: "+address)
				}
				return check(ctx, sidechainNFT, common.HexToAddress(address))
			})
			return nil
		})
		g.Go(func() error {
			o1 = u.runCheck(ctx, "ownerOf:"+string(entities.NetworkMainnetSidechain), address, func() (bool, error) {
				return isOwner(ctx, sidechainNFT, tokenID, address)
			})
			return nil
		})
		g.Go(func() error {
			o2 = u.runCheck(ctx, "ownerOf:"+string(entities.NetworkMainnet), address, func() (bool, error) {
				return isOwner(ctx, mainnetNFT, tokenID, address)
			})
			return nil
		})
		_ = g.Wait()

		isCollaborator = isCollaborator || c
		isSidechainOwner = isSidechainOwner || o1
		isMainnetOwner = isMainnetOwner || o2
	}
	return isCollaborator || isSidechainOwner || isMainnetOwner, nil
}

func (u *OwnershipResolver) runCheck(ctx context.Context, name, address string, fn func() (bool, error)) bool {
	ok, err := fn()
	metrics.ObserveOwnershipCheck(name, err)
	if err != nil {
		logger.Debug(ctx, "Ownership check failed", zap.String("check", name), zap.String("address", address), zap.Error(err))
		return false
	}
	return ok
}

func isOwner(ctx context.Context, nft *blockchain.Contract, tokenID *big.Int, address string) (bool, error) {
	owner, err := nft.CallAddress(ctx, "ownerOf", tokenID)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(owner.Hex(), address), nil
}
