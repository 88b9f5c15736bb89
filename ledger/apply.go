// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"errors"
	"math/big"

	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/metrics"
	"github.com/quayprotocol/quay/quay"
)

var (
	errNotAuthorized   = reverts.New("auth: caller is not the report submitter")
	errFutureReport    = reverts.New("report: timestamp not in the past")
	errValidatorBounds = reverts.New("report: attested validator count outside causal bounds")
)

var (
	metricReportsApplied = metrics.Counter("reports_applied_total")
	metricReportsAborted = metrics.CounterVec("reports_aborted_total", []string{"kind"})
	metricTotalUnits     = metrics.Gauge("total_claim_units")
	metricTotalValue     = metrics.Gauge("total_pooled_value")
)

func checkValidatorBounds(snap *Snapshot, report *AttestedReport) error {
	if report.AttestedValidators < snap.PreAttestedValidators ||
		report.AttestedValidators > snap.DepositedValidators {
		return errValidatorBounds
	}
	return nil
}

// Apply mutates the ledger with the given attested report. Restricted
// to the designated submitter. All effects happen within one state
// checkpoint: any fatal condition discards every effect of the call.
// now is the execution time, unix seconds.
func (l *Ledger) Apply(caller quay.Address, report *AttestedReport, now uint64) error {
	submitter, err := l.storage.submitter.Get()
	if err != nil {
		return err
	}
	if caller != submitter {
		metricReportsAborted.AddWithLabel(1, map[string]string{"kind": "auth"})
		return errNotAuthorized
	}

	checkpoint := l.state.NewCheckpoint()
	if err := l.applyReport(report, now); err != nil {
		l.state.RevertTo(checkpoint)
		kind := "error"
		if reverts.IsRevertErr(err) {
			kind = "reverted"
		}
		metricReportsAborted.AddWithLabel(1, map[string]string{"kind": kind})
		return err
	}
	if err := l.state.Commit(); err != nil {
		return err
	}
	metricReportsApplied.Add(1)
	return nil
}

// wholeTokens down-scales a wei amount for gauge export.
func wholeTokens(wei *big.Int) int64 {
	return new(big.Int).Div(wei, big.NewInt(1e18)).Int64()
}

func (l *Ledger) applyReport(report *AttestedReport, now uint64) error {
	if err := report.Validate(); err != nil {
		return err
	}
	if report.Timestamp >= now {
		return errFutureReport
	}

	snap, err := l.Snapshot(SnapshotFinalized)
	if err != nil {
		return err
	}
	if err := checkValidatorBounds(snap, report); err != nil {
		return err
	}
	fees, err := l.storage.FeeConfig()
	if err != nil {
		return err
	}

	// the apply path takes the report's rate as the pre-computed input
	// and verifies it below, instead of re-running the two-pass
	// bootstrap inside the mutating path
	proj, err := Simulate(snap, report, report.ConversionRate, fees, l.queue, l.checker)
	if err != nil {
		return err
	}

	if err := l.checker.CheckReportBounds(&ReportBounds{
		TimeElapsed:           report.TimeElapsed,
		PreAttestedValidators: snap.PreAttestedValidators,
		AttestedValidators:    report.AttestedValidators,
		PrincipalBalance:      proj.PrincipalBalance,
		AttestedBalance:       report.AttestedBalance,
		PreInternalUnits:      new(big.Int).Sub(snap.PreTotalUnits, snap.ExternalUnits),
		UnitsRequestedToBurn:  report.UnitsRequestedToBurn,
	}); err != nil {
		return err
	}
	if proj.UnitsToFinalizeWithdrawals.Sign() > 0 {
		if err := l.checker.CheckConversionRate(
			proj.PostTotalValue,
			proj.PostTotalUnits,
			proj.ValueToFinalizeWithdrawals,
			proj.UnitsToBurnForWithdrawals,
			report.ConversionRate,
		); err != nil {
			return err
		}
	}

	// Effects. Ordering matters: every ledger mutation happens before
	// any collaborator that could call back into the engine.

	// 1. queue withdrawal units for burning, advance the frontier.
	lastBatch, haveBatches := report.LastFinalizationBatch()
	if proj.UnitsToFinalizeWithdrawals.Sign() > 0 {
		if err := l.burn.RequestBurn(proj.UnitsToFinalizeWithdrawals, false); err != nil {
			return err
		}
		l.storage.lastFinalizedBatch.Set(lastBatch)
	}

	// 2. persist the new attested baseline.
	l.storage.attestedValidators.Set(report.AttestedValidators)
	l.storage.attestedBalance.Set(report.AttestedBalance)
	l.storage.lastReportTimestamp.Set(report.Timestamp)

	// 3. internalize pending bad debt.
	if snap.BadDebtToInternalize.Sign() > 0 {
		if err := l.hub.InternalizeBadDebt(snap.BadDebtToInternalize); err != nil {
			return err
		}
	}

	// 4. commit burns, cover queue first.
	if proj.TotalUnitsToBurn.Sign() > 0 {
		coverBurnt, nonCoverBurnt, err := l.burn.Commit(proj.TotalUnitsToBurn)
		if err != nil {
			return err
		}
		logger.Debug("burn committed",
			"cover", coverBurnt, "nonCover", nonCoverBurnt)
	}

	// 5. move vault transfers into the buffer, update the totals and
	// release the finalization frontier to claimants.
	buffered := new(big.Int).Add(proj.WithdrawalsVaultTransfer, proj.RewardsVaultTransfer)
	if buffered.Sign() > 0 {
		if err := l.storage.bufferedValue.Add(buffered); err != nil {
			return err
		}
	}
	l.storage.totalValue.Set(proj.PostTotalValue)
	l.storage.totalUnits.Set(proj.PostTotalUnits)
	l.storage.externalUnits.Set(proj.PostExternalUnits)
	l.storage.externalValue.Set(proj.PostExternalValue)

	if haveBatches && proj.ValueToFinalizeWithdrawals.Sign() > 0 {
		if err := l.storage.bufferedValue.Sub(proj.ValueToFinalizeWithdrawals); err != nil {
			return err
		}
		if err := l.queue.Finalize(lastBatch, proj.ValueToFinalizeWithdrawals, report.ConversionRate); err != nil {
			return err
		}
	}

	if len(report.VaultValues) > 0 {
		if err := l.hub.UpdateVaults(report.VaultValues, report.VaultInOutDeltas, proj.PostConversionRate()); err != nil {
			return err
		}
	}

	// 6. mint fee units, then notify the router so it observes final
	// state.
	if proj.UnitsMintedAsFees.Sign() > 0 {
		for i, recipient := range proj.Fees.Recipients {
			if err := l.storage.AddUnitBalance(recipient, proj.Fees.RecipientUnits[i]); err != nil {
				return err
			}
		}
		if proj.Fees.TreasuryUnits.Sign() > 0 {
			if err := l.storage.AddUnitBalance(proj.Fees.Treasury, proj.Fees.TreasuryUnits); err != nil {
				return err
			}
		}
		if l.router != nil {
			if err := l.router.OnFeesMinted(proj.Fees); err != nil {
				return err
			}
		}
	}

	rec := &RebaseRecord{
		ReportTimestamp:   report.Timestamp,
		TimeElapsed:       report.TimeElapsed,
		PreTotalUnits:     proj.PreTotalUnits,
		PreTotalValue:     proj.PreTotalValue,
		PostTotalUnits:    proj.PostTotalUnits,
		PostTotalValue:    proj.PostTotalValue,
		UnitsMintedAsFees: proj.UnitsMintedAsFees,
	}

	// 7. best-effort observer notification: per-observer faults are
	// isolated, except the out-of-budget case which is promoted to
	// fatal.
	for _, obs := range l.observers {
		if err := notifyObserver(obs, rec); err != nil {
			if errors.Is(err, ErrObserverOutOfBudget) {
				return err
			}
			logger.Warn("rebase observer failed", "err", err)
		}
	}

	// 8. emit the canonical rebase record.
	if err := l.storage.SetLastRebase(rec); err != nil {
		return err
	}

	metricTotalUnits.Set(wholeTokens(proj.PostTotalUnits))
	metricTotalValue.Set(wholeTokens(proj.PostTotalValue))
	logger.Info("report applied",
		"timestamp", report.Timestamp,
		"elapsed", report.TimeElapsed,
		"postUnits", proj.PostTotalUnits,
		"postValue", proj.PostTotalValue,
		"feeUnits", proj.UnitsMintedAsFees,
	)
	return nil
}

// notifyObserver isolates a panicking observer into an error, so one
// faulty receiver cannot take the report down with it.
func notifyObserver(obs RebaseObserver, rec *RebaseRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = reverts.New("observer panicked")
		}
	}()
	return obs.OnRebase(rec)
}
