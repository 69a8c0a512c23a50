// Package ethereum implements the wallet ports against go-ethereum.
package ethereum

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zk-web3/darknodedex-sub000/business/wallet/app"
	"github.com/zk-web3/darknodedex-sub000/business/wallet/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const tracerName = "wallet.ethereum"

// ConfirmFunc is asked before every signed submission. Returning false
// rejects the transaction on behalf of the user.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction) bool

var _ app.Wallet = (*KeyWallet)(nil)

// KeyWallet signs with a local private key.
type KeyWallet struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	logger  logger.LoggerInterface
	tracer  apm.Tracer

	mu      sync.Mutex
	confirm ConfirmFunc
}

// NewKeyWallet creates a wallet from a hex-encoded private key.
func NewKeyWallet(client *ethclient.Client, privateKeyHex string, chainID uint64, log logger.LoggerInterface) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithMessage("invalid wallet private key"),
			apperror.WithCause(err))
	}

	return &KeyWallet{
		client:  client,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).SetUint64(chainID),
		logger:  log,
		tracer:  apm.NewTracer(tracerName),
	}, nil
}

// SetConfirm installs a confirmation hook. The hook runs before every
// SignAndSend and before TransactOpts signs.
func (w *KeyWallet) SetConfirm(confirm ConfirmFunc) {
	w.mu.Lock()
	w.confirm = confirm
	w.mu.Unlock()
}

func (w *KeyWallet) confirmFunc() ConfirmFunc {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirm
}

// Account returns the connected account.
func (w *KeyWallet) Account() domain.Account {
	return domain.Account{Address: w.address, ChainID: w.chainID.Uint64()}
}

// Address returns the account address.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// ChainID returns the chain the wallet signs for.
func (w *KeyWallet) ChainID() uint64 {
	return w.chainID.Uint64()
}

// TransactOpts returns signing options bound to ctx. The signer runs the
// confirmation hook, so a declined confirmation aborts the contract write
// with a user-rejected error.
func (w *KeyWallet) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTransactionFailed, "building transactor")
	}
	opts.Context = ctx

	inner := opts.Signer
	opts.Signer = func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if confirm := w.confirmFunc(); confirm != nil && !confirm(ctx, tx) {
			return nil, apperror.New(apperror.CodeUserRejected)
		}
		return inner(addr, tx)
	}
	return opts, nil
}

// SignAndSend signs tx and submits it.
func (w *KeyWallet) SignAndSend(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	ctx, span := w.tracer.StartSpanFromContext(ctx, "wallet.sign_and_send")
	defer span.End()

	if confirm := w.confirmFunc(); confirm != nil && !confirm(ctx, tx) {
		span.SetStatus(codes.Error, "rejected by user")
		return common.Hash{}, apperror.New(apperror.CodeUserRejected)
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		span.NoticeError(err)
		return common.Hash{}, apperror.Wrap(err, apperror.CodeTransactionFailed, "signing transaction")
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		span.NoticeError(err)
		return common.Hash{}, apperror.Wrap(err, apperror.CodeEthereumRPCError, "submitting transaction")
	}

	hash := signed.Hash()
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	w.logger.Info(ctx, "transaction submitted", "tx_hash", hash.Hex())
	return hash, nil
}

// NativeBalance returns the account's native coin balance in wei.
func (w *KeyWallet) NativeBalance(ctx context.Context) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "reading native balance")
	}
	return balance, nil
}
