// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/asset"
	"github.com/zk-web3/darknodedex-sub000/internal/config"
	"github.com/zk-web3/darknodedex-sub000/internal/di"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

// Monolith gives modules access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	ChainID() uint64
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
}

// Module is a bounded context that registers its services and starts up.
// RegisterServices runs for all modules before any Startup, so modules
// can resolve services from each other during Startup.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	chainID       uint64
	assetRegistry *asset.Registry
	container     di.Container
	modules       []Module
}

// New dials the Ethereum node, verifies it serves the configured chain,
// and builds the shared service container.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.Ethereum.HTTPURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(cfg.Ethereum.HTTPURL))
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	chainID, err := ethClient.ChainID(verifyCtx)
	if err != nil {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithMessage("could not read chain id from node"),
			apperror.WithCause(err))
	}
	if chainID.Uint64() != cfg.Ethereum.ChainID {
		ethClient.Close()
		return nil, apperror.New(apperror.CodeWrongChain,
			apperror.WithMessage(fmt.Sprintf("node serves chain %d, config expects %d", chainID.Uint64(), cfg.Ethereum.ChainID)))
	}

	assetRegistry := asset.DefaultRegistry()

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", assetRegistry)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		chainID:       chainID.Uint64(),
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *app) Config() *config.Config             { return a.config }
func (a *app) Logger() logger.LoggerInterface     { return a.logger }
func (a *app) EthClient() *ethclient.Client       { return a.ethClient }
func (a *app) ChainID() uint64                    { return a.chainID }
func (a *app) AssetRegistry() *asset.Registry     { return a.assetRegistry }
func (a *app) Services() di.ServiceRegistry       { return a.container }

// Container returns the DI container for module registration.
func (a *app) Container() di.Container { return a.container }

// StartModules registers every module's services, then starts the modules
// in the order given.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register module services: %w", err)
		}
	}
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start module: %w", err)
		}
	}
	a.modules = modules
	return nil
}

// Close releases shared resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
