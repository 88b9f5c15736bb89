// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package withdrawals implements the withdrawal-finalization queue the
// accounting engine reserves value and units against. Requests are
// batched; a batch is finalized once the report applier releases the
// finalization frontier.
package withdrawals

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
	"github.com/quayprotocol/quay/state"
)

var (
	slotPaused         = quay.BytesToBytes32([]byte("withdrawals-paused"))
	slotBatchCounter   = quay.BytesToBytes32([]byte("withdrawals-batch-counter"))
	slotLastFinalized  = quay.BytesToBytes32([]byte("withdrawals-last-finalized"))
	slotBatches        = quay.BytesToBytes32([]byte("withdrawals-batches"))
	slotClaimableValue = quay.BytesToBytes32([]byte("withdrawals-claimable-value"))
)

var (
	errUnknownBatch    = reverts.New("withdrawals: batch beyond the queue")
	errStaleBatch      = reverts.New("withdrawals: batch already finalized")
	errZeroBatchUnits  = reverts.New("withdrawals: zero units enqueued")
	errFinalizeBatches = reverts.New("withdrawals: finalize frontier out of order")
)

// Batch is one pending withdrawal request batch. MaxValue caps the
// value payable for the batch: requests never profit from a rate that
// grew after they were submitted.
type Batch struct {
	Units    *big.Int
	MaxValue *big.Int
}

// Queue is the state-backed finalization queue.
type Queue struct {
	context       *solidity.Context
	paused        *solidity.Uint64
	batchCounter  *solidity.Uint64
	lastFinalized *solidity.Uint64
	claimable     *solidity.Uint256
	batches       *solidity.Mapping[*big.Int, *Batch]
}

var _ ledger.WithdrawalQueue = (*Queue)(nil)

// New create a queue bound to the given storage address.
func New(addr quay.Address, st *state.State) *Queue {
	context := solidity.NewContext(addr, st)
	return &Queue{
		context:       context,
		paused:        solidity.NewUint64(context, slotPaused),
		batchCounter:  solidity.NewUint64(context, slotBatchCounter),
		lastFinalized: solidity.NewUint64(context, slotLastFinalized),
		claimable:     solidity.NewUint256(context, slotClaimableValue),
		batches:       solidity.NewMapping[*big.Int, *Batch](context, slotBatches),
	}
}

// IsPaused reports whether finalization is suspended.
func (q *Queue) IsPaused() (bool, error) {
	v, err := q.paused.Get()
	return v != 0, err
}

// SetPaused suspends or resumes finalization.
func (q *Queue) SetPaused(paused bool) {
	if paused {
		q.paused.Set(1)
	} else {
		q.paused.Set(0)
	}
}

// LastFinalizedBatch returns the current finalization frontier.
func (q *Queue) LastFinalizedBatch() (uint64, error) {
	return q.lastFinalized.Get()
}

// ClaimableValue returns the total value released to claimants.
func (q *Queue) ClaimableValue() (*big.Int, error) {
	return q.claimable.Get()
}

// Enqueue appends a request batch and returns its id. maxValue is the
// value locked at request time, the payout cap for the batch.
func (q *Queue) Enqueue(units, maxValue *big.Int) (uint64, error) {
	if units == nil || units.Sign() <= 0 {
		return 0, errZeroBatchUnits
	}
	counter, err := q.batchCounter.Get()
	if err != nil {
		return 0, err
	}
	counter++
	if err := q.batches.Set(batchKey(counter), &Batch{Units: units, MaxValue: maxValue}); err != nil {
		return 0, errors.Wrap(err, "failed to store batch")
	}
	q.batchCounter.Set(counter)
	return counter, nil
}

// Prefinalize computes the value and units needed to satisfy every
// batch up to the last boundary, at the given rate. Read-only.
func (q *Queue) Prefinalize(batches []uint64, rate *big.Int) (*big.Int, *big.Int, error) {
	lastFinalized, err := q.lastFinalized.Get()
	if err != nil {
		return nil, nil, err
	}
	counter, err := q.batchCounter.Get()
	if err != nil {
		return nil, nil, err
	}

	last := batches[len(batches)-1]
	if batches[0] <= lastFinalized {
		return nil, nil, errStaleBatch
	}
	if last > counter {
		return nil, nil, errUnknownBatch
	}

	value, units := new(big.Int), new(big.Int)
	for id := lastFinalized + 1; id <= last; id++ {
		batch, err := q.batches.Get(batchKey(id))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to load batch")
		}
		batchValue := new(big.Int).Mul(batch.Units, rate)
		batchValue.Div(batchValue, quay.RatePrecision)
		if batchValue.Cmp(batch.MaxValue) > 0 {
			batchValue.Set(batch.MaxValue)
		}
		value.Add(value, batchValue)
		units.Add(units, batch.Units)
	}
	return value, units, nil
}

// Finalize advances the frontier and releases the reserved value to
// claimants. Called by the report applier only.
func (q *Queue) Finalize(lastBatch uint64, value, _ *big.Int) error {
	lastFinalized, err := q.lastFinalized.Get()
	if err != nil {
		return err
	}
	if lastBatch <= lastFinalized {
		return errFinalizeBatches
	}
	counter, err := q.batchCounter.Get()
	if err != nil {
		return err
	}
	if lastBatch > counter {
		return errUnknownBatch
	}
	q.lastFinalized.Set(lastBatch)
	return q.claimable.Add(value)
}

func batchKey(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}
