package blockchain

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chain-gateway.backend/internal/config"
	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/metrics"
	"chain-gateway.backend/pkg/utils"
)

// ChainSet is the result of one registry load. It is never mutated after the load returns.
type ChainSet struct {
	Addresses     ContractAddresses
	RawABIs       ContractABIs
	ABIs          map[entities.ContractRole]abi.ABI
	Clients       map[entities.ChainNetwork]*EVMClient
	Contracts     map[entities.ChainNetwork]map[entities.ContractRole]*Contract
	GethNodeURL   string
	GethNodeWSURL string
	WebsocketURLs map[entities.ChainNetwork]string
}

// Contract returns the handle bound for network and role
func (s *ChainSet) Contract(network entities.ChainNetwork, role entities.ContractRole) (*Contract, error) {
	byRole, ok := s.Contracts[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedChain, network)
	}
	c, ok := byRole[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnsupportedContract, role)
	}
	return c, nil
}

// Registry loads the remote contract configuration once and serves the resulting ChainSet
type Registry struct {
	cfg        config.ChainConfig
	httpClient *http.Client
	factory    *ClientFactory
	cell       *utils.Lazy[*ChainSet]
}

// NewRegistry creates a registry. Nothing is fetched until Start, Load or Contract is called.
func NewRegistry(cfg config.ChainConfig, factory *ClientFactory) *Registry {
	if factory == nil {
		factory = NewClientFactory()
	}
	r := &Registry{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		factory:    factory,
	}
	r.cell = utils.NewLazy(context.Background(), r.load)
	return r
}

// Start kicks off the load in the background
func (r *Registry) Start() {
	r.cell.Start()
}

// Load waits for the one-time load and returns its outcome. ctx only bounds the wait.
func (r *Registry) Load(ctx context.Context) (*ChainSet, error) {
	return r.cell.Get(ctx)
}

// Loaded returns the chain set without waiting; ok is false until a load has succeeded
func (r *Registry) Loaded() (*ChainSet, bool) {
	set, ready, err := r.cell.Peek()
	if !ready || err != nil {
		return nil, false
	}
	return set, true
}

// Contract waits for the load and returns the handle for network and role
func (r *Registry) Contract(ctx context.Context, network entities.ChainNetwork, role entities.ContractRole) (*Contract, error) {
	set, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return set.Contract(network, role)
}

func (r *Registry) load(ctx context.Context) (set *ChainSet, err error) {
	defer func() {
		metrics.ObserveRegistryLoad(err)
		if err != nil {
			logger.Error(ctx, "Chain registry load failed", zap.Error(err))
		}
	}()

	var (
		addresses ContractAddresses
		rawABIs   ContractABIs
		hostIP    string
		ports     NodePorts
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return fetchConfigDocument(gctx, r.httpClient, r.cfg.AddressesURL, &addresses)
	})
	g.Go(func() error {
		return fetchConfigDocument(gctx, r.httpClient, r.cfg.ABIURL, &rawABIs)
	})
	g.Go(func() error {
		ip, err := resolveHostIPv4(gctx, r.cfg.EthereumHost)
		hostIP = ip
		return err
	})
	g.Go(func() error {
		return fetchConfigDocument(gctx, r.httpClient, r.cfg.PortsURL, &ports)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ports.validate(); err != nil {
		return nil, domainerrors.Config("load ports", err)
	}

	set, err = r.build(addresses, rawABIs, hostIP, ports)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Chain registry loaded",
		zap.String("geth_node", set.GethNodeURL),
		zap.Int("networks", len(set.Clients)),
	)
	return set, nil
}

func (r *Registry) build(addresses ContractAddresses, rawABIs ContractABIs, hostIP string, ports NodePorts) (*ChainSet, error) {
	set := &ChainSet{
		Addresses:     addresses,
		RawABIs:       rawABIs,
		ABIs:          make(map[entities.ContractRole]abi.ABI, len(entities.ContractRoles)),
		Clients:       make(map[entities.ChainNetwork]*EVMClient, len(entities.BlockchainNetworks)),
		Contracts:     make(map[entities.ChainNetwork]map[entities.ContractRole]*Contract, len(entities.BlockchainNetworks)),
		GethNodeURL:   "http://" + hostIP,
		GethNodeWSURL: "ws://" + hostIP,
	}

	rpcURLs := map[entities.ChainNetwork]string{
		entities.NetworkMainnet:          r.cfg.MainnetRPC(),
		entities.NetworkMainnetSidechain: fmt.Sprintf("%s:%d", set.GethNodeURL, ports.MainnetSidechain),
		entities.NetworkPolygon:          r.cfg.PolygonRPC(),
	}
	set.WebsocketURLs = map[entities.ChainNetwork]string{
		entities.NetworkMainnet:          r.cfg.MainnetWS(),
		entities.NetworkMainnetSidechain: fmt.Sprintf("%s:%d", set.GethNodeWSURL, ports.MainnetSidechainWs),
		entities.NetworkPolygon:          r.cfg.PolygonWS(),
	}

	for _, role := range entities.ContractRoles {
		raw, ok := rawABIs[role]
		if !ok || len(raw) == 0 {
			return nil, domainerrors.Config("bind contracts", fmt.Errorf("no ABI for %s", role))
		}
		parsed, err := parseABI(raw)
		if err != nil {
			return nil, domainerrors.Config("bind contracts", fmt.Errorf("parse %s ABI: %w", role, err))
		}
		set.ABIs[role] = parsed
	}

	for _, network := range entities.BlockchainNetworks {
		byRole, ok := addresses[network]
		if !ok {
			return nil, domainerrors.Config("bind contracts", fmt.Errorf("no addresses for network %s", network))
		}

		client, err := r.factory.GetEVMClient(rpcURLs[network])
		if err != nil {
			return nil, domainerrors.Transport("connect "+string(network), err)
		}
		set.Clients[network] = client

		set.Contracts[network] = make(map[entities.ContractRole]*Contract, len(entities.ContractRoles))
		for _, role := range entities.ContractRoles {
			hex := byRole[role]
			if !common.IsHexAddress(hex) {
				return nil, domainerrors.Config("bind contracts", fmt.Errorf("invalid %s address on %s: %q", role, network, hex))
			}
			set.Contracts[network][role] = NewContract(network, role, common.HexToAddress(hex), set.ABIs[role], client)
		}
	}
	return set, nil
}
