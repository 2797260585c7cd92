// Package chain is the boundary to the blockchain side of the platform.
// Ledger operations submit a transaction and suspend until it is confirmed;
// nothing in this module signs or broadcasts anything itself.
package chain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Tx describes a ledger mutation submitted for on-chain confirmation.
type Tx struct {
	Method string            `json:"method"`
	Sender string            `json:"sender"`
	Params map[string]string `json:"params,omitempty"`
}

// Receipt is the confirmation of a submitted transaction.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Confirmer submits a transaction and blocks until it is confirmed or the
// context expires. Implementations must honor context cancellation.
type Confirmer interface {
	SubmitAndConfirm(ctx context.Context, tx Tx) (Receipt, error)
}

// ErrConfirmationTimeout is returned when a confirmation wait exceeds its bound.
var ErrConfirmationTimeout = errors.New("chain: confirmation timed out")

// ErrTxRejected is returned when the gateway reports a failed transaction.
var ErrTxRejected = errors.New("chain: transaction rejected")

// Immediate confirms every transaction instantly. It stands in for the real
// gateway in tests and in local demo mode.
type Immediate struct{}

// SubmitAndConfirm returns a synthetic receipt without any round trip.
func (Immediate) SubmitAndConfirm(ctx context.Context, tx Tx) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if tx.Method == "" {
		return Receipt{}, errors.New("chain: empty method")
	}
	return Receipt{TxHash: newTxHash(), ConfirmedAt: time.Now().UTC()}, nil
}

func newTxHash() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}
