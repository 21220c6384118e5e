package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// EthConfig describes how to reach the deployed contract.
type EthConfig struct {
	URL        string // JSON-RPC endpoint, e.g. http://localhost:7545
	Contract   string // hex address of the restaurant contract
	PrivateKey string // hex signing key; empty means read-only
}

// EthBackend talks to the contract over JSON-RPC with go-ethereum.
type EthBackend struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract *bind.BoundContract
	auth     *bind.TransactOpts // nil when no signing key is configured
}

// DialEth connects to the node, parses the contract ABI and prepares a
// transactor when a signing key is configured.
func DialEth(ctx context.Context, cfg EthConfig) (*EthBackend, error) {
	if !common.IsHexAddress(cfg.Contract) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Contract)
	}
	parsed, err := abi.JSON(strings.NewReader(RestaurantABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	addr := common.HexToAddress(cfg.Contract)
	b := &EthBackend{
		client:   client,
		abi:      parsed,
		contract: bind.NewBoundContract(addr, parsed, client, client, client),
	}
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("parse signing key: %w", err)
		}
		if b.auth, err = newTransactor(ctx, client, key); err != nil {
			client.Close()
			return nil, err
		}
	}
	return b, nil
}

func newTransactor(ctx context.Context, client *ethclient.Client, key *ecdsa.PrivateKey) (*bind.TransactOpts, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	return auth, nil
}

// Accounts returns the signing key's address when one is configured and
// otherwise whatever the node reports for eth_accounts.
func (b *EthBackend) Accounts(ctx context.Context) ([]common.Address, error) {
	if b.auth != nil {
		return []common.Address{b.auth.From}, nil
	}
	var accounts []common.Address
	if err := b.client.Client().CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (b *EthBackend) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	opts := &bind.CallOpts{Context: ctx}
	if b.auth != nil {
		opts.From = b.auth.From
	}
	var out []any
	if err := b.contract.Call(opts, &out, method, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Send submits a transaction, waits for it to be mined and decodes the
// receipt's logs against the contract ABI.
func (b *EthBackend) Send(ctx context.Context, method string, args ...any) (*Receipt, error) {
	if b.auth == nil {
		return nil, ErrNoIdentity
	}
	opts := *b.auth
	opts.Context = ctx
	tx, err := b.contract.Transact(&opts, method, args...)
	if err != nil {
		return nil, err
	}
	rcpt, err := bind.WaitMined(ctx, b.client, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if rcpt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	out := &Receipt{
		TxHash:      rcpt.TxHash,
		BlockNumber: rcpt.BlockNumber.Uint64(),
		Events:      make(map[string]EventValues),
	}
	for _, lg := range rcpt.Logs {
		name, values, err := b.decodeLog(lg)
		if err != nil {
			log.Printf("ledger: skip undecodable log in %s: %v", tx.Hash().Hex(), err)
			continue
		}
		out.Events[name] = values
	}
	return out, nil
}

func (b *EthBackend) decodeLog(lg *types.Log) (string, EventValues, error) {
	if len(lg.Topics) == 0 {
		return "", nil, fmt.Errorf("anonymous log")
	}
	ev, err := b.abi.EventByID(lg.Topics[0])
	if err != nil {
		return "", nil, err
	}
	values := make(map[string]any)
	if len(lg.Data) > 0 {
		if err := ev.Inputs.UnpackIntoMap(values, lg.Data); err != nil {
			return "", nil, err
		}
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(values, indexed, lg.Topics[1:]); err != nil {
			return "", nil, err
		}
	}
	return ev.Name, values, nil
}

func (b *EthBackend) Close() { b.client.Close() }
