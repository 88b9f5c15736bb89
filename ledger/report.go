// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/quayprotocol/quay/ledger/reverts"
)

var (
	errMalformedBatches = reverts.New("report: finalization batches not strictly ascending")
	errMalformedVaults  = reverts.New("report: vault value/flow arrays length mismatch")
	errMissingField     = reverts.New("report: missing numeric field")
)

// AttestedReport is the periodic attestation about the remote consensus
// layer, produced by the oracle committee and consumed exactly once by a
// successful apply. It is immutable per call.
type AttestedReport struct {
	// Timestamp is the reference time of the frame the report covers,
	// unix seconds. It must be in the past at execution time.
	Timestamp uint64
	// TimeElapsed is the time since the previous applied report, seconds.
	TimeElapsed uint64

	// AttestedValidators is the number of protocol validators ever
	// appeared on the consensus layer, as attested.
	AttestedValidators uint64
	// AttestedBalance is the aggregate balance of those validators, wei.
	AttestedBalance *big.Int

	// WithdrawalVaultBalance and RewardVaultBalance are the buffered
	// vault balances at the frame boundary, wei.
	WithdrawalVaultBalance *big.Int
	RewardVaultBalance     *big.Int

	// UnitsRequestedToBurn is the claim units sitting in the burn queues
	// at the frame boundary.
	UnitsRequestedToBurn *big.Int

	// FinalizationBatches is the ordered list of withdrawal request
	// batch boundaries to finalize, ascending. Empty means no
	// finalization this frame.
	FinalizationBatches []uint64

	// ConversionRate is the proposed value-per-unit rate, scaled by
	// quay.RatePrecision. The apply path verifies it against the
	// projection instead of recomputing it.
	ConversionRate *big.Int

	// VaultValues and VaultInOutDeltas describe the collateral vaults,
	// one entry per vault. Both arrays must have equal length.
	VaultValues      []*big.Int
	VaultInOutDeltas []*big.Int
}

// Validate performs the structural checks that do not need any state.
func (r *AttestedReport) Validate() error {
	for _, v := range []*big.Int{
		r.AttestedBalance, r.WithdrawalVaultBalance, r.RewardVaultBalance,
		r.UnitsRequestedToBurn, r.ConversionRate,
	} {
		if v == nil || v.Sign() < 0 {
			return errMissingField
		}
	}
	for i := 1; i < len(r.FinalizationBatches); i++ {
		if r.FinalizationBatches[i] <= r.FinalizationBatches[i-1] {
			return errMalformedBatches
		}
	}
	if len(r.VaultValues) != len(r.VaultInOutDeltas) {
		return errMalformedVaults
	}
	for _, v := range r.VaultValues {
		if v == nil || v.Sign() < 0 {
			return errMissingField
		}
	}
	for _, v := range r.VaultInOutDeltas {
		if v == nil {
			return errMissingField
		}
	}
	return nil
}

// LastFinalizationBatch returns the last batch boundary, the new
// finalization frontier. Second return is false when the list is empty.
func (r *AttestedReport) LastFinalizationBatch() (uint64, bool) {
	if len(r.FinalizationBatches) == 0 {
		return 0, false
	}
	return r.FinalizationBatches[len(r.FinalizationBatches)-1], true
}
