package blockchain

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
	"chain-gateway.backend/pkg/logger"
	"chain-gateway.backend/pkg/utils"
)

var (
	dialWebsocketClient = func(ctx context.Context, url string) (*rpc.Client, error) {
		return rpc.DialOptions(ctx, url, rpc.WithWebsocketDialer(websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 45 * time.Second,
		}))
	}
	subscribeNewHead = func(ctx context.Context, client *ethclient.Client, ch chan<- *types.Header) (ethereum.Subscription, error) {
		return client.SubscribeNewHead(ctx, ch)
	}
)

// WebsocketContract is a contract handle on its own websocket connection
type WebsocketContract struct {
	*Contract
	Listener *Listener
}

// Listener reports the lifecycle of a websocket connection. Error handlers receive
// socket failures; end handlers run once when the connection is gone for any reason.
type Listener struct {
	id  string
	ctx context.Context

	mu            sync.Mutex
	errorHandlers []func(error)
	endHandlers   []func()
	ended         chan struct{}

	endOnce      sync.Once
	teardownOnce sync.Once
	closeOnce    sync.Once
	disconnected atomic.Bool
	stop         chan struct{}

	sub         ethereum.Subscription
	closeClient func()
}

func newListener(sub ethereum.Subscription, closeClient func()) *Listener {
	id := utils.NewCorrelationID()
	return &Listener{
		id:          id,
		ctx:         logger.WithCorrelationID(context.Background(), id),
		ended:       make(chan struct{}),
		stop:        make(chan struct{}),
		sub:         sub,
		closeClient: closeClient,
	}
}

// ID identifies the connection in logs
func (l *Listener) ID() string {
	return l.id
}

// OnError registers a handler for socket errors
func (l *Listener) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorHandlers = append(l.errorHandlers, fn)
}

// OnEnd registers a handler for the end of the connection. If the connection has
// already ended the handler runs immediately.
func (l *Listener) OnEnd(fn func()) {
	l.mu.Lock()
	select {
	case <-l.ended:
		l.mu.Unlock()
		fn()
		return
	default:
	}
	l.endHandlers = append(l.endHandlers, fn)
	l.mu.Unlock()
}

// Done is closed once the connection has ended
func (l *Listener) Done() <-chan struct{} {
	return l.ended
}

// Disconnect closes the connection. Teardown failures are logged, never raised.
func (l *Listener) Disconnect() {
	l.closeOnce.Do(func() {
		l.disconnected.Store(true)
		close(l.stop)
		defer l.emitEnd()
		defer func() {
			if r := recover(); r != nil {
				logger.Warn(l.ctx, "Websocket disconnect failed", zap.Any("panic", r))
			}
		}()
		l.teardown()
	})
}

func (l *Listener) teardown() {
	l.teardownOnce.Do(func() {
		if l.sub != nil {
			l.sub.Unsubscribe()
		}
		if l.closeClient != nil {
			l.closeClient()
		}
	})
}

func (l *Listener) emitError(err error) {
	l.mu.Lock()
	handlers := append([]func(error){}, l.errorHandlers...)
	l.mu.Unlock()

	if len(handlers) == 0 {
		logger.Warn(l.ctx, "Websocket error with no handler", zap.Error(err))
		return
	}
	for _, fn := range handlers {
		fn(err)
	}
}

func (l *Listener) emitEnd() {
	l.endOnce.Do(func() {
		l.mu.Lock()
		close(l.ended)
		handlers := l.endHandlers
		l.endHandlers = nil
		l.mu.Unlock()

		for _, fn := range handlers {
			fn()
		}
	})
}

// watch drains head notifications and turns subscription failure into error/end events
func (l *Listener) watch(heads <-chan *types.Header) {
	for {
		select {
		case <-heads:
		case err, ok := <-l.sub.Err():
			if l.disconnected.Load() {
				return
			}
			if ok && err != nil {
				logger.Warn(l.ctx, "Websocket connection lost", zap.Error(err))
				l.emitError(err)
			}
			l.teardown()
			l.emitEnd()
			return
		case <-l.stop:
			return
		}
	}
}

// DialWebsocketContract opens a new websocket connection for network and binds the
// role's contract to it. Each call opens its own connection; the caller owns it.
func (s *ChainSet) DialWebsocketContract(ctx context.Context, network entities.ChainNetwork, role entities.ContractRole) (*WebsocketContract, error) {
	base, err := s.Contract(network, role)
	if err != nil {
		return nil, err
	}
	url, ok := s.WebsocketURLs[network]
	if !ok {
		return nil, fmt.Errorf("%w: no websocket endpoint for %s", domainerrors.ErrUnsupportedChain, network)
	}

	op := "dial websocket " + string(network)
	rpcClient, err := dialWebsocketClient(ctx, url)
	if err != nil {
		return nil, domainerrors.Transport(op, err)
	}
	ec := ethclient.NewClient(rpcClient)

	heads := make(chan *types.Header, 16)
	sub, err := subscribeNewHead(ctx, ec, heads)
	if err != nil {
		// Providers may restrict eth_subscribe; the contract still works, only the
		// socket-loss notification is lost.
		logger.Warn(ctx, "Websocket liveness subscription unavailable",
			zap.String("network", string(network)),
			zap.Error(domainerrors.Transport(op, fmt.Errorf("subscribe newHeads: %w", err))),
		)
		sub = nil
	}

	listener := newListener(sub, rpcClient.Close)
	if sub != nil {
		go listener.watch(heads)
	}

	logger.Debug(listener.ctx, "Websocket contract connected",
		zap.String("network", string(network)),
		zap.String("contract", string(role)),
	)
	return &WebsocketContract{
		Contract: NewContract(network, role, base.Address, base.ABI, newEVMClientFromClient(ec, url)),
		Listener: listener,
	}, nil
}
