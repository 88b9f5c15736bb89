// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/lvldb"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/sanity"
	"github.com/quayprotocol/quay/state"
	"github.com/quayprotocol/quay/vaults"
	"github.com/quayprotocol/quay/withdrawals"
)

var (
	submitter = quay.BytesToAddress([]byte("submitter"))
	treasury  = quay.BytesToAddress([]byte("treasury"))
	feeRcpt1  = quay.BytesToAddress([]byte("fee-r1"))
	feeRcpt2  = quay.BytesToAddress([]byte("fee-r2"))
	stranger  = quay.BytesToAddress([]byte("stranger"))
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type fixture struct {
	st     *state.State
	engine *ledger.Ledger
	queue  *withdrawals.Queue
	hub    *vaults.Hub
}

func newFixture(t *testing.T, observers ...ledger.RebaseObserver) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	queue := withdrawals.New(quay.BytesToAddress([]byte("queue")), st)
	hub := vaults.New(quay.BytesToAddress([]byte("hub")), st)
	engine := ledger.New(quay.BytesToAddress([]byte("engine")), st, ledger.Collaborators{
		Checker:   sanity.New(sanity.DefaultLimits()),
		Queue:     queue,
		Hub:       hub,
		Observers: observers,
	})

	require.NoError(t, engine.Initialize(&ledger.InitParams{
		Submitter: submitter,
		Treasury:  treasury,
		FeeRate:   1000, // 10%
		Recipients: []ledger.FeeRecipient{
			{Recipient: feeRcpt1, Weight: 2},
			{Recipient: feeRcpt2, Weight: 1},
		},
		TotalValue:          ether(4000),
		TotalUnits:          ether(4000),
		AttestedValidators:  100,
		AttestedBalance:     ether(3200),
		DepositedValidators: 100,
	}))
	require.NoError(t, st.Commit())
	return &fixture{st: st, engine: engine, queue: queue, hub: hub}
}

// halfEther is within the default annualized-increase limit over one day.
var halfEther = big.NewInt(5e17)

func rewardReport() *ledger.AttestedReport {
	return &ledger.AttestedReport{
		Timestamp:              1000,
		TimeElapsed:            86400,
		AttestedValidators:     100,
		AttestedBalance:        new(big.Int).Add(ether(3200), halfEther),
		WithdrawalVaultBalance: ether(1),
		RewardVaultBalance:     ether(1),
		UnitsRequestedToBurn:   new(big.Int),
		ConversionRate:         new(big.Int),
	}
}

func TestApplyRewardReport(t *testing.T) {
	fx := newFixture(t)
	report := rewardReport()
	report.VaultValues = []*big.Int{ether(32)}
	report.VaultInOutDeltas = []*big.Int{new(big.Int).Neg(ether(1))}

	require.NoError(t, fx.engine.Apply(submitter, report, 2000))

	// value: 4000 + 3200.5 attested - 3200 principal + 2 vault transfers
	wantValue := new(big.Int).Add(ether(4002), halfEther)
	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	assert.Zero(t, wantValue.Cmp(totalValue))

	// fee on 2.5 of rewards at 10%: mint = 0.25 * 4000 / (4002.5 - 0.25)
	feeValue := big.NewInt(25e16)
	denom := new(big.Int).Sub(wantValue, feeValue)
	wantMint := new(big.Int).Mul(feeValue, ether(4000))
	wantMint.Div(wantMint, denom)

	totalUnits, err := fx.engine.TotalUnits()
	require.NoError(t, err)
	assert.Zero(t, new(big.Int).Add(ether(4000), wantMint).Cmp(totalUnits))

	buffered, err := fx.engine.BufferedValue()
	require.NoError(t, err)
	assert.Zero(t, ether(2).Cmp(buffered))

	// pro-rata fee split, remainder to the treasury
	r1, err := fx.engine.UnitBalance(feeRcpt1)
	require.NoError(t, err)
	r2, err := fx.engine.UnitBalance(feeRcpt2)
	require.NoError(t, err)
	tr, err := fx.engine.UnitBalance(treasury)
	require.NoError(t, err)

	want1 := new(big.Int).Mul(wantMint, big.NewInt(2))
	want1.Div(want1, big.NewInt(3))
	want2 := new(big.Int).Div(wantMint, big.NewInt(3))
	assert.Zero(t, want1.Cmp(r1))
	assert.Zero(t, want2.Cmp(r2))
	sum := new(big.Int).Add(r1, r2)
	sum.Add(sum, tr)
	assert.Zero(t, wantMint.Cmp(sum))

	ts, err := fx.engine.LastReportTimestamp()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), ts)

	rec, err := fx.engine.LastRebase()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(1000), rec.ReportTimestamp)
	assert.Zero(t, wantMint.Cmp(rec.UnitsMintedAsFees))
	assert.Zero(t, ether(4000).Cmp(rec.PreTotalValue))
	assert.Zero(t, wantValue.Cmp(rec.PostTotalValue))

	// vault records persisted
	count, err := fx.hub.VaultCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	vault, err := fx.hub.GetVault(0)
	require.NoError(t, err)
	assert.Zero(t, ether(32).Cmp(vault.Value))
	assert.Zero(t, new(big.Int).Neg(ether(1)).Cmp(vault.InOutDelta()))
}

func TestApplyNotAuthorized(t *testing.T) {
	fx := newFixture(t)

	err := fx.engine.Apply(stranger, rewardReport(), 2000)
	assert.EqualError(t, err, "auth: caller is not the report submitter")
}

func TestApplyFutureReport(t *testing.T) {
	fx := newFixture(t)

	err := fx.engine.Apply(submitter, rewardReport(), 1000)
	assert.EqualError(t, err, "report: timestamp not in the past")

	// the abort leaves the ledger untouched
	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	assert.Zero(t, ether(4000).Cmp(totalValue))
	ts, err := fx.engine.LastReportTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
}

func TestApplyValidatorBounds(t *testing.T) {
	fx := newFixture(t)

	report := rewardReport()
	report.AttestedValidators = 101 // above deposited
	err := fx.engine.Apply(submitter, report, 2000)
	assert.EqualError(t, err, "report: attested validator count outside causal bounds")

	report = rewardReport()
	report.AttestedValidators = 99 // below the previous attestation
	err = fx.engine.Apply(submitter, report, 2000)
	assert.EqualError(t, err, "report: attested validator count outside causal bounds")
}

func TestApplyImplausibleBurnRequest(t *testing.T) {
	fx := newFixture(t)

	report := rewardReport()
	report.UnitsRequestedToBurn = ether(4001) // above the internal supply

	err := fx.engine.Apply(submitter, report, 2000)
	assert.EqualError(t, err, "sanity: burn request exceeds internal units")

	totalUnits, err := fx.engine.TotalUnits()
	require.NoError(t, err)
	assert.Zero(t, ether(4000).Cmp(totalUnits))
}

func TestApplyWithdrawalFinalization(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.queue.Enqueue(ether(10), ether(11))
	require.NoError(t, err)
	require.NoError(t, fx.engine.AddBufferedValue(ether(20)))
	require.NoError(t, fx.st.Commit())

	report := rewardReport()
	report.FinalizationBatches = []uint64{1}

	// the preview bootstraps the rate the submitter must supply
	proj, err := fx.engine.Preview(report)
	require.NoError(t, err)
	report.ConversionRate = proj.PostConversionRate()

	require.NoError(t, fx.engine.Apply(submitter, report, 2000))

	last, err := fx.queue.LastFinalizedBatch()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), last)

	claimable, err := fx.queue.ClaimableValue()
	require.NoError(t, err)
	wantClaim := new(big.Int).Mul(ether(10), report.ConversionRate)
	wantClaim.Div(wantClaim, quay.RatePrecision)
	if wantClaim.Cmp(ether(11)) > 0 {
		wantClaim.Set(ether(11))
	}
	assert.Zero(t, wantClaim.Cmp(claimable))

	// the finalized units were burnt from the non-cover queue
	_, nonCoverBurnt, err := fx.engine.Burn().Burnt()
	require.NoError(t, err)
	assert.Zero(t, ether(10).Cmp(nonCoverBurnt))

	rec, err := fx.engine.LastRebase()
	require.NoError(t, err)
	wantUnits := new(big.Int).Sub(ether(4000), ether(10))
	wantUnits.Add(wantUnits, rec.UnitsMintedAsFees)
	totalUnits, err := fx.engine.TotalUnits()
	require.NoError(t, err)
	assert.Zero(t, wantUnits.Cmp(totalUnits))

	// reserved value moved out of the buffer to claimants
	buffered, err := fx.engine.BufferedValue()
	require.NoError(t, err)
	wantBuffered := new(big.Int).Add(ether(22), new(big.Int).Neg(wantClaim))
	assert.Zero(t, wantBuffered.Cmp(buffered))
}

func TestApplyInternalizesBadDebt(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	queue := withdrawals.New(quay.BytesToAddress([]byte("queue")), st)
	hub := vaults.New(quay.BytesToAddress([]byte("hub")), st)
	engine := ledger.New(quay.BytesToAddress([]byte("engine")), st, ledger.Collaborators{
		Checker: sanity.New(sanity.DefaultLimits()),
		Queue:   queue,
		Hub:     hub,
	})

	require.NoError(t, engine.Initialize(&ledger.InitParams{
		Submitter:           submitter,
		Treasury:            treasury,
		TotalValue:          ether(4000),
		TotalUnits:          ether(4000),
		ExternalUnits:       ether(400),
		ExternalValue:       ether(400),
		AttestedValidators:  100,
		AttestedBalance:     ether(3200),
		DepositedValidators: 100,
	}))
	require.NoError(t, hub.RecordBadDebt(ether(40)))
	require.NoError(t, hub.FreezeFrame())
	require.NoError(t, st.Commit())

	report := rewardReport()
	require.NoError(t, engine.Apply(submitter, report, 2000))

	external, err := engine.ExternalUnits()
	require.NoError(t, err)
	assert.Zero(t, ether(360).Cmp(external))

	pending, err := hub.PendingBadDebt()
	require.NoError(t, err)
	assert.True(t, pending.Sign() == 0)
	frozen, err := hub.FrozenBadDebt()
	require.NoError(t, err)
	assert.True(t, frozen.Sign() == 0)
}

func TestPreviewHasNoSideEffects(t *testing.T) {
	fx := newFixture(t)

	a, err := fx.engine.Preview(rewardReport())
	require.NoError(t, err)
	b, err := fx.engine.Preview(rewardReport())
	require.NoError(t, err)

	assert.Zero(t, a.PostTotalValue.Cmp(b.PostTotalValue))
	assert.Zero(t, a.PostTotalUnits.Cmp(b.PostTotalUnits))

	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	assert.Zero(t, ether(4000).Cmp(totalValue))
	ts, err := fx.engine.LastReportTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
}

func TestPreviewMatchesApply(t *testing.T) {
	fx := newFixture(t)

	proj, err := fx.engine.Preview(rewardReport())
	require.NoError(t, err)
	require.NoError(t, fx.engine.Apply(submitter, rewardReport(), 2000))

	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	totalUnits, err := fx.engine.TotalUnits()
	require.NoError(t, err)
	assert.Zero(t, proj.PostTotalValue.Cmp(totalValue))
	assert.Zero(t, proj.PostTotalUnits.Cmp(totalUnits))
}

func TestAbortedFinalizationLeavesEngineUsable(t *testing.T) {
	obs := &failingObserver{err: ledger.ErrObserverOutOfBudget}
	fx := newFixture(t, obs)

	_, err := fx.queue.Enqueue(ether(10), ether(11))
	require.NoError(t, err)
	require.NoError(t, fx.engine.AddBufferedValue(ether(20)))
	require.NoError(t, fx.st.Commit())

	// a finalizing report credits the buffer for the vault transfers and
	// debits it again for the reserved value, all inside one checkpoint
	report := rewardReport()
	report.FinalizationBatches = []uint64{1}
	proj, err := fx.engine.Preview(report)
	require.NoError(t, err)
	report.ConversionRate = proj.PostConversionRate()

	err = fx.engine.Apply(submitter, report, 2000)
	assert.ErrorIs(t, err, ledger.ErrObserverOutOfBudget)

	// the revert must leave every slot readable and unchanged
	buffered, err := fx.engine.BufferedValue()
	require.NoError(t, err)
	assert.Zero(t, ether(20).Cmp(buffered))
	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	assert.Zero(t, ether(4000).Cmp(totalValue))
	last, err := fx.queue.LastFinalizedBatch()
	require.NoError(t, err)
	assert.Zero(t, last)

	// and the engine stays usable: the same report applies once the
	// observer recovers
	obs.err = nil
	require.NoError(t, fx.engine.Apply(submitter, report, 2000))
	ts, err := fx.engine.LastReportTimestamp()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), ts)
}

type failingObserver struct {
	err error
}

func (o *failingObserver) OnRebase(*ledger.RebaseRecord) error { return o.err }

type panickyObserver struct{}

func (panickyObserver) OnRebase(*ledger.RebaseRecord) error { panic("boom") }

func TestObserverFaultIsolation(t *testing.T) {
	fx := newFixture(t, &failingObserver{err: assert.AnError}, panickyObserver{})

	// ordinary observer failures never take the report down
	require.NoError(t, fx.engine.Apply(submitter, rewardReport(), 2000))
	ts, err := fx.engine.LastReportTimestamp()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), ts)
}

func TestObserverOutOfBudgetAborts(t *testing.T) {
	fx := newFixture(t, &failingObserver{err: ledger.ErrObserverOutOfBudget})

	err := fx.engine.Apply(submitter, rewardReport(), 2000)
	assert.ErrorIs(t, err, ledger.ErrObserverOutOfBudget)

	// every effect of the aborted report is rolled back
	totalValue, err := fx.engine.TotalValue()
	require.NoError(t, err)
	assert.Zero(t, ether(4000).Cmp(totalValue))
	rec, err := fx.engine.LastRebase()
	require.NoError(t, err)
	assert.Nil(t, rec)
}
