// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"math/big"
)

// ErrObserverOutOfBudget marks an observer failure carrying no usable
// data. Unlike every other observer failure it aborts the whole report,
// so the resources needed to submit a report cannot be mis-estimated.
var ErrObserverOutOfBudget = errors.New("observer ran out of budget")

// SmoothenParams feeds the sanity checker's smoothing function.
type SmoothenParams struct {
	TimeElapsed uint64

	PreInternalValue *big.Int
	PreInternalUnits *big.Int
	PrincipalBalance *big.Int
	AttestedBalance  *big.Int

	WithdrawalVaultBalance *big.Int
	RewardVaultBalance     *big.Int

	UnitsRequestedToBurn *big.Int

	ValueToFinalizeWithdrawals *big.Int
	UnitsToFinalizeWithdrawals *big.Int
}

// SmoothenResult is the clamped rebase deltas. The clamp bounds the
// maximum single-period rebase so a party able to influence report
// timing cannot extract value by front-running a report.
type SmoothenResult struct {
	WithdrawalsVaultTransfer  *big.Int
	RewardsVaultTransfer      *big.Int
	UnitsToBurnForWithdrawals *big.Int
	TotalUnitsToBurn          *big.Int
}

// ReportBounds feeds the sanity checker's per-field limit checks.
// Vault balances carry no bound here: there is no source to verify them
// against, and the smoothing clamp caps what they may contribute.
type ReportBounds struct {
	TimeElapsed uint64

	PreAttestedValidators uint64
	AttestedValidators    uint64

	PrincipalBalance *big.Int
	AttestedBalance  *big.Int

	PreInternalUnits     *big.Int
	UnitsRequestedToBurn *big.Int
}

// SanityChecker bounds every applied report. A rejection here is an
// intentional brake, not a bug; it aborts the report.
type SanityChecker interface {
	// SmoothenRebase clamps the proposed deltas to the configured
	// per-frame limits.
	SmoothenRebase(p *SmoothenParams) (*SmoothenResult, error)
	// CheckReportBounds validates elapsed time, balance deltas and
	// burn-request plausibility.
	CheckReportBounds(b *ReportBounds) error
	// CheckConversionRate verifies an externally supplied rate is
	// consistent with the projection it was used for.
	CheckConversionRate(postTotalValue, postTotalUnits, valueToFinalize, unitsToBurnForWithdrawals, rate *big.Int) error
}

// WithdrawalQueue is the withdrawal-finalization service. Prefinalize
// may revert (e.g. insufficient buffer); that is not caught locally.
type WithdrawalQueue interface {
	IsPaused() (bool, error)
	// Prefinalize reserves enough pooled value and claim units, at the
	// given rate, to satisfy every request up to the last boundary.
	Prefinalize(batches []uint64, rate *big.Int) (value, units *big.Int, err error)
	// Finalize releases the finalization frontier to claimants.
	Finalize(lastBatch uint64, value, rate *big.Int) error
}

// FeeRouter is notified of minted fee units after minting, so it
// observes final state.
type FeeRouter interface {
	OnFeesMinted(dist *FeeDistribution) error
}

// RebaseObserver receives the canonical rebase record, best-effort.
type RebaseObserver interface {
	OnRebase(rec *RebaseRecord) error
}

// VaultHub is the collateral-vault collaborator: bad-debt ledger plus
// per-vault rebase bookkeeping.
type VaultHub interface {
	// PendingBadDebt is the currently pending figure (live reads).
	PendingBadDebt() (*big.Int, error)
	// FrozenBadDebt is the figure frozen at the previous frame
	// boundary (apply path reads).
	FrozenBadDebt() (*big.Int, error)
	// InternalizeBadDebt decrements the pending-debt counter once the
	// corresponding units moved internally.
	InternalizeBadDebt(units *big.Int) error
	// UpdateVaults applies the reported per-vault values and flows at
	// the post-report conversion rate.
	UpdateVaults(values, inOutDeltas []*big.Int, rate *big.Int) error
}
