// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

// SnapshotMode selects which bad-debt figure a snapshot reads.
type SnapshotMode int

const (
	// SnapshotLive reads the currently pending bad debt. Used by the
	// read-only preview.
	SnapshotLive SnapshotMode = iota
	// SnapshotFinalized reads the bad debt frozen as of the previous
	// reporting boundary. Used inside the actual apply path, so the
	// applied report is based on the frame boundary it nominally
	// covers, not on the instant the transaction executes.
	SnapshotFinalized
)

// Snapshot reads the ledger's current totals without side effects.
func (l *Ledger) Snapshot(mode SnapshotMode) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error

	if snap.PreAttestedValidators, err = l.storage.attestedValidators.Get(); err != nil {
		return nil, err
	}
	if snap.PreAttestedBalance, err = l.storage.attestedBalance.Get(); err != nil {
		return nil, err
	}
	if snap.PreTotalValue, err = l.storage.totalValue.Get(); err != nil {
		return nil, err
	}
	if snap.PreTotalUnits, err = l.storage.totalUnits.Get(); err != nil {
		return nil, err
	}
	if snap.DepositedValidators, err = l.storage.depositedValidators.Get(); err != nil {
		return nil, err
	}
	if snap.ExternalUnits, err = l.storage.externalUnits.Get(); err != nil {
		return nil, err
	}
	if snap.ExternalValue, err = l.storage.externalValue.Get(); err != nil {
		return nil, err
	}

	switch mode {
	case SnapshotFinalized:
		snap.BadDebtToInternalize, err = l.hub.FrozenBadDebt()
	default:
		snap.BadDebtToInternalize, err = l.hub.PendingBadDebt()
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}
