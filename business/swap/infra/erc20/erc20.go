// Package erc20 reads allowances and submits approvals for ERC-20
// tokens.
package erc20

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/internal/apm"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const (
	tracerName = "swap.erc20"
	meterName  = "swap.erc20"

	receiptPollInterval = 2 * time.Second
)

const erc20ABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// MaxApproval is the unlimited allowance, 2^256-1. One approval per
// token and spender instead of one per trade.
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// TxSigner produces signed transaction options for contract calls.
type TxSigner interface {
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

var (
	_ app.AllowanceReader = (*Client)(nil)
	_ app.Approver        = (*Client)(nil)
)

type clientMetrics struct {
	allowanceReads metric.Int64Counter
	approvals      metric.Int64Counter
}

// Client talks to ERC-20 contracts: allowance reads via eth_call and
// approvals as signed transactions.
type Client struct {
	client *ethclient.Client
	abi    abi.ABI
	signer TxSigner

	logger  logger.LoggerInterface
	tracer  apm.Tracer
	metrics *clientMetrics
}

// NewClient creates an ERC-20 client. The signer may be nil for a
// read-only client; Approve then fails.
func NewClient(client *ethclient.Client, signer TxSigner, log logger.LoggerInterface) (*Client, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}

	c := &Client{
		client: client,
		abi:    parsedABI,
		signer: signer,
		logger: log,
		tracer: apm.NewTracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.allowanceReads, err = meter.Int64Counter(
		"erc20_allowance_reads_total",
		metric.WithDescription("Allowance reads"),
	)
	if err != nil {
		return err
	}

	c.metrics.approvals, err = meter.Int64Counter(
		"erc20_approvals_total",
		metric.WithDescription("Approval transactions submitted"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Allowance reads how much of owner's token the spender may move.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "erc20.allowance")
	defer span.End()
	span.SetAttributes(
		attribute.String("token", token.Hex()),
		attribute.String("spender", spender.Hex()),
	)

	c.metrics.allowanceReads.Add(ctx, 1)

	callData, err := c.abi.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: callData,
	}, nil)
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeAllowanceReadFailed, "reading allowance")
	}

	outputs, err := c.abi.Unpack("allowance", result)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeAllowanceReadFailed, "decoding allowance")
	}
	if len(outputs) < 1 {
		return nil, apperror.New(apperror.CodeAllowanceReadFailed,
			apperror.WithContext("empty allowance result"))
	}
	return outputs[0].(*big.Int), nil
}

// Approve submits an unlimited allowance for the spender and returns
// the transaction hash without waiting for it to mine.
func (c *Client) Approve(ctx context.Context, token, spender common.Address) (common.Hash, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "erc20.approve")
	defer span.End()
	span.SetAttributes(
		attribute.String("token", token.Hex()),
		attribute.String("spender", spender.Hex()),
	)

	if c.signer == nil {
		return common.Hash{}, apperror.New(apperror.CodeInvalidState,
			apperror.WithMessage("client has no signer"))
	}

	opts, err := c.signer.TransactOpts(ctx)
	if err != nil {
		span.NoticeError(err)
		return common.Hash{}, err
	}

	contract := bind.NewBoundContract(token, c.abi, c.client, c.client, c.client)
	tx, err := contract.Transact(opts, "approve", spender, MaxApproval)
	if err != nil {
		span.NoticeError(err)
		c.metrics.approvals.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", false)))
		return common.Hash{}, apperror.Wrap(err, apperror.CodeApprovalFailed, "submitting approval")
	}

	span.SetAttributes(attribute.String("tx_hash", tx.Hash().Hex()))
	c.metrics.approvals.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", true)))
	c.logger.Info(ctx, "approval submitted",
		"token", token.Hex(),
		"spender", spender.Hex(),
		"tx_hash", tx.Hash().Hex(),
	)
	return tx.Hash(), nil
}

// WaitMined blocks until the approval mines and reports whether it
// succeeded on chain.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (bool, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "erc20.wait_mined")
	defer span.End()
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt.Status == types.ReceiptStatusSuccessful, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return false, apperror.Wrap(err, apperror.CodeEthereumRPCError, "fetching receipt")
		}

		select {
		case <-ctx.Done():
			return false, apperror.Wrap(ctx.Err(), apperror.CodeServiceTimeout, "waiting for receipt")
		case <-ticker.C:
		}
	}
}
