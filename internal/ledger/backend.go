package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// EventValues holds the decoded arguments of one contract event keyed by
// argument name.
type EventValues map[string]any

// Receipt is the outcome of a mined write.  Events are keyed by event name;
// when a transaction emits the same event twice the last one wins, which is
// fine for this contract.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Events      map[string]EventValues
}

// Backend is the raw contract surface: read calls, write sends and the
// accounts exposed by the connected node.  Arguments and results use the
// go-ethereum ABI types (*big.Int for uint256, string, []*big.Int).
type Backend interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	Call(ctx context.Context, method string, args ...any) ([]any, error)
	Send(ctx context.Context, method string, args ...any) (*Receipt, error)
	Close()
}
