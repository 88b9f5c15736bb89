// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
)

var (
	errZeroPostUnits    = reverts.New("accounting: post internal units must be positive")
	errNegativeValue    = reverts.New("accounting: post internal value below zero")
	errZeroDenominator  = reverts.New("accounting: zero denominator in fee unit computation")
	errBadDebtUnderflow = reverts.New("accounting: bad debt exceeds external units")
)

// Simulate projects the complete post-report ledger state for the given
// snapshot, report and conversion rate. It never writes state; the queue
// and checker collaborators are consulted read-only.
//
// A zero rate skips the withdrawal reservation. Callers without a
// pre-computed rate invoke Simulate twice: once with a zero rate to
// bootstrap a provisional postTotalValue/postTotalUnits ratio, then once
// more supplying that ratio as the real rate.
func Simulate(
	snap *Snapshot,
	report *AttestedReport,
	rate *big.Int,
	fees *FeeConfig,
	queue WithdrawalQueue,
	checker SanityChecker,
) (*Projection, error) {
	// 1. principal balance: the portion of the attested balance
	// attributable to fresh deposits rather than rewards.
	appeared := new(big.Int).SetUint64(report.AttestedValidators - snap.PreAttestedValidators)
	principal := appeared.Mul(appeared, quay.DepositSize)
	principal.Add(principal, snap.PreAttestedBalance)

	// 2. withdrawal finalization reservation.
	valueToFinalize := new(big.Int)
	unitsToFinalize := new(big.Int)
	if rate != nil && rate.Sign() > 0 {
		if _, ok := report.LastFinalizationBatch(); ok {
			paused, err := queue.IsPaused()
			if err != nil {
				return nil, err
			}
			if !paused {
				// a queue revert here (e.g. insufficient buffer) aborts
				// the whole report, not caught locally
				valueToFinalize, unitsToFinalize, err = queue.Prefinalize(report.FinalizationBatches, rate)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	preInternalUnits := snap.InternalUnits()
	preInternalValue := snap.InternalValue()

	// 3. clamp the proposed deltas to the configured per-frame limits.
	smoothed, err := checker.SmoothenRebase(&SmoothenParams{
		TimeElapsed:                report.TimeElapsed,
		PreInternalValue:           preInternalValue,
		PreInternalUnits:           preInternalUnits,
		PrincipalBalance:           principal,
		AttestedBalance:            report.AttestedBalance,
		WithdrawalVaultBalance:     report.WithdrawalVaultBalance,
		RewardVaultBalance:         report.RewardVaultBalance,
		UnitsRequestedToBurn:       report.UnitsRequestedToBurn,
		ValueToFinalizeWithdrawals: valueToFinalize,
		UnitsToFinalizeWithdrawals: unitsToFinalize,
	})
	if err != nil {
		return nil, err
	}

	// 4. units surviving the burn, before fee minting.
	unitsBeforeFees := new(big.Int).Sub(preInternalUnits, smoothed.TotalUnitsToBurn)
	if unitsBeforeFees.Sign() <= 0 {
		return nil, errZeroPostUnits
	}

	// 5. post-report internal value.
	postInternalValue := new(big.Int).Add(preInternalValue, report.AttestedBalance)
	postInternalValue.Add(postInternalValue, smoothed.WithdrawalsVaultTransfer)
	postInternalValue.Sub(postInternalValue, principal)
	postInternalValue.Add(postInternalValue, smoothed.RewardsVaultTransfer)
	postInternalValue.Sub(postInternalValue, valueToFinalize)
	if postInternalValue.Sign() < 0 {
		return nil, errNegativeValue
	}

	// 6. fee units, only on a strictly profitable period. The fee is
	// computed as a unit mint sized so the post-fee conversion rate
	// equals what a value-deduction of the same fee would produce.
	unitsToMint := new(big.Int)
	unified := new(big.Int).Add(report.AttestedBalance, smoothed.WithdrawalsVaultTransfer)
	if unified.Cmp(principal) > 0 && fees.Rate > 0 {
		totalRewards := new(big.Int).Sub(unified, principal)
		totalRewards.Add(totalRewards, smoothed.RewardsVaultTransfer)

		feeValue := new(big.Int).SetUint64(fees.Rate)
		feeValue.Mul(feeValue, totalRewards)
		feeValue.Div(feeValue, new(big.Int).SetUint64(quay.FeePrecision))

		denom := new(big.Int).Sub(postInternalValue, feeValue)
		if denom.Sign() <= 0 {
			return nil, errZeroDenominator
		}
		unitsToMint.Mul(feeValue, unitsBeforeFees)
		unitsToMint.Div(unitsToMint, denom)
	}

	// 7. pro-rata fee split, remainder to the treasury.
	dist := distributeFees(unitsToMint, fees)

	// 8-9. bad debt moves units from the external pool internally.
	postInternalUnits := new(big.Int).Add(unitsBeforeFees, unitsToMint)
	postInternalUnits.Add(postInternalUnits, snap.BadDebtToInternalize)
	if postInternalUnits.Sign() <= 0 {
		return nil, errZeroPostUnits
	}
	postExternalUnits := new(big.Int).Sub(snap.ExternalUnits, snap.BadDebtToInternalize)
	if postExternalUnits.Sign() < 0 {
		// cannot happen when the upstream bad-debt figure is computed
		// correctly; treated as a defect, never clamped
		return nil, errBadDebtUnderflow
	}

	// 10. externally-backed value rebases at the same effective rate.
	postExternalValue := new(big.Int).Mul(postExternalUnits, postInternalValue)
	postExternalValue.Div(postExternalValue, postInternalUnits)

	postTotalUnits := new(big.Int).Add(postInternalUnits, postExternalUnits)
	postTotalValue := new(big.Int).Add(postInternalValue, postExternalValue)

	return &Projection{
		WithdrawalsVaultTransfer:   smoothed.WithdrawalsVaultTransfer,
		RewardsVaultTransfer:       smoothed.RewardsVaultTransfer,
		ValueToFinalizeWithdrawals: valueToFinalize,
		UnitsToFinalizeWithdrawals: unitsToFinalize,
		UnitsToBurnForWithdrawals:  smoothed.UnitsToBurnForWithdrawals,
		TotalUnitsToBurn:           smoothed.TotalUnitsToBurn,
		PrincipalBalance:           principal,
		PreTotalValue:              new(big.Int).Set(snap.PreTotalValue),
		PreTotalUnits:              new(big.Int).Set(snap.PreTotalUnits),
		PostInternalValue:          postInternalValue,
		PostInternalUnits:          postInternalUnits,
		PostExternalUnits:          postExternalUnits,
		PostExternalValue:          postExternalValue,
		PostTotalValue:             postTotalValue,
		PostTotalUnits:             postTotalUnits,
		UnitsMintedAsFees:          unitsToMint,
		Fees:                       dist,
	}, nil
}
