// Package memledger is an in-process stand-in for the restaurant contract.
// It backs LEDGER_URL=memory:// for local development and is the stub the
// tests assert against.
package memledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iliyamo/restaurant-booking/internal/ledger"
)

// ErrRevert is what a rejected write fails with.
var ErrRevert = errors.New("execution reverted")

type booking struct {
	id, guests, date, slot, venue uint64
	name                          string
}

// Contract keeps bookings and restaurants in memory with the same method
// surface as the deployed contract.
type Contract struct {
	mu          sync.Mutex
	account     common.Address
	hasAccount  bool
	bookingSeq  uint64
	venueSeq    uint64
	bookings    map[uint64]*booking
	byVenue     map[uint64][]uint64
	venues      map[uint64]string
	suppressed  map[string]bool
	failures    map[string]error
	calls       int
	sends       int
	sentMethods []string
}

// New returns an empty contract with a single unlocked account.
func New() *Contract {
	return &Contract{
		account:    common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		hasAccount: true,
		bookings:   make(map[uint64]*booking),
		byVenue:    make(map[uint64][]uint64),
		venues:     make(map[uint64]string),
		suppressed: make(map[string]bool),
		failures:   make(map[string]error),
	}
}

// WithoutAccount makes Accounts report nothing, as a node with no unlocked
// accounts would.
func (c *Contract) WithoutAccount() *Contract {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasAccount = false
	return c
}

// SuppressEvent stops the named event from appearing in receipts.
func (c *Contract) SuppressEvent(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suppressed[name] = true
}

// FailSend makes every send of method fail with err.
func (c *Contract) FailSend(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[method] = err
}

// Calls and Sends report how many reads and writes reached the contract.
func (c *Contract) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *Contract) Sends() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sends
}

// SentMethods lists write methods in submission order.
func (c *Contract) SentMethods() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sentMethods...)
}

func (c *Contract) Accounts(ctx context.Context) ([]common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasAccount {
		return nil, nil
	}
	return []common.Address{c.account}, nil
}

func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	switch method {
	case ledger.MethodBookingCount:
		return []any{u256(c.bookingSeq)}, nil
	case ledger.MethodBookings:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		b, ok := c.bookings[id]
		if !ok {
			return []any{u256(0), u256(0), "", u256(0), u256(0), u256(0)}, nil
		}
		return []any{u256(b.id), u256(b.guests), b.name, u256(b.date), u256(b.slot), u256(b.venue)}, nil
	case ledger.MethodGetBookings:
		venue, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		ids := make([]*big.Int, 0, len(c.byVenue[venue]))
		for _, id := range c.byVenue[venue] {
			ids = append(ids, u256(id))
		}
		return []any{ids}, nil
	case ledger.MethodRestaurants:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		name, ok := c.venues[id]
		if !ok {
			return []any{u256(0), ""}, nil
		}
		return []any{u256(id), name}, nil
	}
	return nil, fmt.Errorf("memledger: unknown method %q", method)
}

func (c *Contract) Send(ctx context.Context, method string, args ...any) (*ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasAccount {
		return nil, ledger.ErrNoIdentity
	}
	c.sends++
	c.sentMethods = append(c.sentMethods, method)
	if err := c.failures[method]; err != nil {
		return nil, err
	}

	rcpt := &ledger.Receipt{
		TxHash:      txHash(c.sends, method),
		BlockNumber: uint64(c.sends),
		Events:      make(map[string]ledger.EventValues),
	}
	switch method {
	case ledger.MethodCreateRestaurant:
		name, err := strArg(args, 0)
		if err != nil {
			return nil, err
		}
		c.venueSeq++
		c.venues[c.venueSeq] = name
		c.emit(rcpt, ledger.EventRestaurantCreated, ledger.EventValues{"id": u256(c.venueSeq), "name": name})
	case ledger.MethodCreateBooking:
		nums, err := args64(args, 0, 2, 3, 4)
		if err != nil {
			return nil, err
		}
		name, err := strArg(args, 1)
		if err != nil {
			return nil, err
		}
		if nums[0] == 0 {
			return nil, fmt.Errorf("%w: guests must be positive", ErrRevert)
		}
		c.bookingSeq++
		b := &booking{id: c.bookingSeq, guests: nums[0], name: name, date: nums[1], slot: nums[2], venue: nums[3]}
		c.bookings[b.id] = b
		c.byVenue[b.venue] = append(c.byVenue[b.venue], b.id)
		c.emit(rcpt, ledger.EventBookingCreated, ledger.EventValues{
			"id": u256(b.id), "numberOfGuests": u256(b.guests), "name": b.name,
			"date": u256(b.date), "time": u256(b.slot), "restaurantId": u256(b.venue),
		})
	case ledger.MethodEditBooking:
		nums, err := args64(args, 0, 1, 3, 4)
		if err != nil {
			return nil, err
		}
		name, err := strArg(args, 2)
		if err != nil {
			return nil, err
		}
		b, ok := c.bookings[nums[0]]
		if !ok {
			return nil, fmt.Errorf("%w: booking %d does not exist", ErrRevert, nums[0])
		}
		b.guests, b.name, b.date, b.slot = nums[1], name, nums[2], nums[3]
	case ledger.MethodRemoveBooking:
		id, err := arg(args, 0)
		if err != nil {
			return nil, err
		}
		b, ok := c.bookings[id]
		if !ok {
			return nil, fmt.Errorf("%w: booking %d does not exist", ErrRevert, id)
		}
		delete(c.bookings, id)
		ids := c.byVenue[b.venue]
		for i, v := range ids {
			if v == id {
				c.byVenue[b.venue] = append(ids[:i:i], ids[i+1:]...)
				break
			}
		}
	default:
		return nil, fmt.Errorf("memledger: unknown method %q", method)
	}
	return rcpt, nil
}

func (c *Contract) Close() {}

func (c *Contract) emit(r *ledger.Receipt, name string, v ledger.EventValues) {
	if c.suppressed[name] {
		return
	}
	r.Events[name] = v
}

func txHash(n int, method string) common.Hash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	return common.Hash(sha256.Sum256(append(buf[:], method...)))
}

func u256(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

func arg(args []any, i int) (uint64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("memledger: missing argument %d", i)
	}
	n, ok := args[i].(*big.Int)
	if !ok || n == nil || !n.IsUint64() {
		return 0, fmt.Errorf("memledger: argument %d is not a uint256: %T", i, args[i])
	}
	return n.Uint64(), nil
}

func args64(args []any, idx ...int) ([]uint64, error) {
	out := make([]uint64, 0, len(idx))
	for _, i := range idx {
		n, err := arg(args, i)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func strArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("memledger: missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("memledger: argument %d is not a string: %T", i, args[i])
	}
	return s, nil
}
