// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the protocol accounting engine: it ingests
// a periodic attested report about the remote consensus layer, projects
// the resulting change to the pooled-asset ledger and applies it
// atomically. The simulator is a pure projection; the applier is the
// only code permitted to write the ledger.
package ledger

import (
	"math/big"

	"github.com/quayprotocol/quay/ledger/burn"
	"github.com/quayprotocol/quay/log"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
	"github.com/quayprotocol/quay/state"
)

var logger = log.WithContext("pkg", "ledger")

// Collaborators are the external services the engine consumes. All of
// them must be non-nil except Router and Observers.
type Collaborators struct {
	Checker   SanityChecker
	Queue     WithdrawalQueue
	Hub       VaultHub
	Router    FeeRouter
	Observers []RebaseObserver
}

// Ledger is the accounting engine bound to its storage address.
type Ledger struct {
	storage *storage
	burn    *burn.Service
	state   *state.State

	checker   SanityChecker
	queue     WithdrawalQueue
	hub       VaultHub
	router    FeeRouter
	observers []RebaseObserver
}

// New create a new engine instance over the given state.
func New(addr quay.Address, st *state.State, c Collaborators) *Ledger {
	sctx := solidity.NewContext(addr, st)
	return &Ledger{
		storage:   newStorage(addr, st),
		burn:      burn.New(sctx),
		state:     st,
		checker:   c.Checker,
		queue:     c.Queue,
		hub:       c.Hub,
		router:    c.Router,
		observers: c.Observers,
	}
}

// InitParams seeds a fresh ledger.
type InitParams struct {
	Submitter  quay.Address
	Treasury   quay.Address
	FeeRate    uint64
	Recipients []FeeRecipient

	TotalValue          *big.Int
	TotalUnits          *big.Int
	ExternalUnits       *big.Int
	ExternalValue       *big.Int
	AttestedValidators  uint64
	AttestedBalance     *big.Int
	DepositedValidators uint64
}

// Initialize writes the genesis ledger state. It is expected to run
// exactly once, before any report is applied.
func (l *Ledger) Initialize(p *InitParams) error {
	l.storage.submitter.Set(&p.Submitter)
	l.storage.treasury.Set(&p.Treasury)
	l.storage.feeRate.Set(p.FeeRate)
	if err := l.storage.SetFeeRecipients(p.Recipients); err != nil {
		return err
	}

	if p.TotalValue != nil {
		l.storage.totalValue.Set(p.TotalValue)
	}
	if p.TotalUnits != nil {
		l.storage.totalUnits.Set(p.TotalUnits)
	}
	if p.ExternalUnits != nil {
		l.storage.externalUnits.Set(p.ExternalUnits)
	}
	if p.ExternalValue != nil {
		l.storage.externalValue.Set(p.ExternalValue)
	}
	if p.AttestedBalance != nil {
		l.storage.attestedBalance.Set(p.AttestedBalance)
	}
	l.storage.attestedValidators.Set(p.AttestedValidators)
	l.storage.depositedValidators.Set(p.DepositedValidators)
	return nil
}

//
// Getters - no state change
//

// TotalValue returns the total pooled value, wei.
func (l *Ledger) TotalValue() (*big.Int, error) {
	return l.storage.totalValue.Get()
}

// TotalUnits returns the total claim units outstanding.
func (l *Ledger) TotalUnits() (*big.Int, error) {
	return l.storage.totalUnits.Get()
}

// ExternalUnits returns the externally-backed claim units.
func (l *Ledger) ExternalUnits() (*big.Int, error) {
	return l.storage.externalUnits.Get()
}

// BufferedValue returns the protocol's working buffer, wei.
func (l *Ledger) BufferedValue() (*big.Int, error) {
	return l.storage.bufferedValue.Get()
}

// UnitBalance returns the claim units held by an account (fee
// recipients only; the user flow lives outside this engine).
func (l *Ledger) UnitBalance(addr quay.Address) (*big.Int, error) {
	return l.storage.UnitBalance(addr)
}

// ConversionRate returns value per claim unit, scaled by
// quay.RatePrecision. Zero units yields a zero rate.
func (l *Ledger) ConversionRate() (*big.Int, error) {
	units, err := l.storage.totalUnits.Get()
	if err != nil {
		return nil, err
	}
	if units.Sign() == 0 {
		return new(big.Int), nil
	}
	value, err := l.storage.totalValue.Get()
	if err != nil {
		return nil, err
	}
	rate := new(big.Int).Mul(value, quay.RatePrecision)
	return rate.Div(rate, units), nil
}

// Submitter returns the only address allowed to apply reports. A zero
// address means the ledger was never initialized.
func (l *Ledger) Submitter() (quay.Address, error) {
	return l.storage.submitter.Get()
}

// LastReportTimestamp returns the timestamp of the last applied report.
func (l *Ledger) LastReportTimestamp() (uint64, error) {
	return l.storage.lastReportTimestamp.Get()
}

// LastRebase returns the record of the last applied report, nil if no
// report was ever applied.
func (l *Ledger) LastRebase() (*RebaseRecord, error) {
	return l.storage.LastRebase()
}

// Burn exposes the burn ledger sub-service.
func (l *Ledger) Burn() *burn.Service {
	return l.burn
}

// SetDepositedValidators records the deposit-dispatch collaborator's
// validator count. Not part of the report path.
func (l *Ledger) SetDepositedValidators(count uint64) {
	l.storage.depositedValidators.Set(count)
}

// AddBufferedValue credits the working buffer. Used by the deposit
// routing collaborator, not part of the report path.
func (l *Ledger) AddBufferedValue(amount *big.Int) error {
	return l.storage.bufferedValue.Add(amount)
}

// Preview projects the given report against the live snapshot without
// any side effects. Identical snapshot and input produce identical
// output. The conversion rate is bootstrapped with a two-pass
// simulation, so callers can pre-compute the rate before submitting.
func (l *Ledger) Preview(report *AttestedReport) (*Projection, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}
	snap, err := l.Snapshot(SnapshotLive)
	if err != nil {
		return nil, err
	}
	if err := checkValidatorBounds(snap, report); err != nil {
		return nil, err
	}
	fees, err := l.storage.FeeConfig()
	if err != nil {
		return nil, err
	}

	// first pass with a neutral rate to bootstrap the ratio
	proj, err := Simulate(snap, report, new(big.Int), fees, l.queue, l.checker)
	if err != nil {
		return nil, err
	}
	if _, ok := report.LastFinalizationBatch(); !ok {
		return proj, nil
	}

	// second pass with the derived rate prices the withdrawal
	// reservation
	return Simulate(snap, report, proj.PostConversionRate(), fees, l.queue, l.checker)
}
