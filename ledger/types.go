// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/quayprotocol/quay/quay"
)

// Snapshot is the ledger's pre-report view, recomputed fresh on every
// invocation and never persisted.
// Invariant: DepositedValidators >= attested validators of the incoming
// report >= PreAttestedValidators.
type Snapshot struct {
	PreAttestedValidators uint64
	PreAttestedBalance    *big.Int
	PreTotalValue         *big.Int
	PreTotalUnits         *big.Int
	DepositedValidators   uint64
	ExternalUnits         *big.Int
	ExternalValue         *big.Int
	// BadDebtToInternalize moves units from the externally-backed pool
	// into the internal pool. Live mode reads the currently pending
	// figure, finalized mode the figure frozen at the previous frame
	// boundary.
	BadDebtToInternalize *big.Int
}

// InternalUnits returns the claim units backed by the internal pool.
func (s *Snapshot) InternalUnits() *big.Int {
	return new(big.Int).Sub(s.PreTotalUnits, s.ExternalUnits)
}

// InternalValue returns the pooled value backed by the internal pool.
func (s *Snapshot) InternalValue() *big.Int {
	return new(big.Int).Sub(s.PreTotalValue, s.ExternalValue)
}

// FeeRecipient is one configured protocol-fee recipient with its
// integer distribution weight.
type FeeRecipient struct {
	Recipient quay.Address
	Weight    uint64
}

// FeeConfig is the protocol-fee setup the simulator distributes by.
type FeeConfig struct {
	// Rate is the total fee in basis points of quay.FeePrecision.
	Rate uint64
	// Recipients are split pro-rata by weight, floor division.
	Recipients []FeeRecipient
	// Treasury receives the floor-rounding remainder so the
	// distribution sums exactly.
	Treasury quay.Address
}

// FeeDistribution is the exact split of minted fee units.
// sum(RecipientUnits) + TreasuryUnits == total minted, no dust.
type FeeDistribution struct {
	Recipients     []quay.Address
	RecipientUnits []*big.Int
	Treasury       quay.Address
	TreasuryUnits  *big.Int
}

// Total returns the summed distribution.
func (d *FeeDistribution) Total() *big.Int {
	total := new(big.Int).Set(d.TreasuryUnits)
	for _, u := range d.RecipientUnits {
		total.Add(total, u)
	}
	return total
}

// Projection is the complete post-report ledger projection produced by
// the simulator. It is ephemeral; only the applier turns it into state.
type Projection struct {
	// Vault transfers into the working buffer.
	WithdrawalsVaultTransfer *big.Int
	RewardsVaultTransfer     *big.Int

	// Withdrawal finalization reservation.
	ValueToFinalizeWithdrawals *big.Int
	UnitsToFinalizeWithdrawals *big.Int

	// Burn split. TotalUnitsToBurn = UnitsToBurnForWithdrawals + cover/
	// non-cover queue consumption committed by the applier.
	UnitsToBurnForWithdrawals *big.Int
	TotalUnitsToBurn          *big.Int

	// PrincipalBalance is the non-reward baseline of the attested
	// balance.
	PrincipalBalance *big.Int

	PreTotalValue *big.Int
	PreTotalUnits *big.Int

	PostInternalValue *big.Int
	PostInternalUnits *big.Int
	PostExternalUnits *big.Int
	PostExternalValue *big.Int
	PostTotalValue    *big.Int
	PostTotalUnits    *big.Int

	UnitsMintedAsFees *big.Int
	Fees              *FeeDistribution
}

// PostConversionRate returns post total value per unit, scaled by
// quay.RatePrecision.
func (p *Projection) PostConversionRate() *big.Int {
	rate := new(big.Int).Mul(p.PostTotalValue, quay.RatePrecision)
	return rate.Div(rate, p.PostTotalUnits)
}

// RebaseRecord is the canonical record of an applied report, used by
// downstream analytics and rebase observers.
type RebaseRecord struct {
	ReportTimestamp   uint64
	TimeElapsed       uint64
	PreTotalUnits     *big.Int
	PreTotalValue     *big.Int
	PostTotalUnits    *big.Int
	PostTotalValue    *big.Int
	UnitsMintedAsFees *big.Int
}
