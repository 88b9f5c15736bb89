// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package report

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/quay"
)

// JSONReport is the wire form of an attested report.
type JSONReport struct {
	Timestamp   uint64 `json:"timestamp"`
	TimeElapsed uint64 `json:"timeElapsed"`

	AttestedValidators uint64       `json:"attestedValidators"`
	AttestedBalance    *hexutil.Big `json:"attestedBalance"`

	WithdrawalVaultBalance *hexutil.Big `json:"withdrawalVaultBalance"`
	RewardVaultBalance     *hexutil.Big `json:"rewardVaultBalance"`

	UnitsRequestedToBurn *hexutil.Big `json:"unitsRequestedToBurn"`

	FinalizationBatches []uint64     `json:"finalizationBatches"`
	ConversionRate      *hexutil.Big `json:"conversionRate"`

	VaultValues      []*hexutil.Big `json:"vaultValues"`
	VaultInOutDeltas []*hexutil.Big `json:"vaultInOutDeltas"`
}

// ToLedger converts the wire form into the engine's report type.
func (r *JSONReport) ToLedger() *ledger.AttestedReport {
	return &ledger.AttestedReport{
		Timestamp:              r.Timestamp,
		TimeElapsed:            r.TimeElapsed,
		AttestedValidators:     r.AttestedValidators,
		AttestedBalance:        fromHex(r.AttestedBalance),
		WithdrawalVaultBalance: fromHex(r.WithdrawalVaultBalance),
		RewardVaultBalance:     fromHex(r.RewardVaultBalance),
		UnitsRequestedToBurn:   fromHex(r.UnitsRequestedToBurn),
		FinalizationBatches:    r.FinalizationBatches,
		ConversionRate:         fromHex(r.ConversionRate),
		VaultValues:            fromHexSlice(r.VaultValues),
		VaultInOutDeltas:       fromHexSlice(r.VaultInOutDeltas),
	}
}

// JSONProjection is the wire form of a rebase projection.
type JSONProjection struct {
	WithdrawalsVaultTransfer *hexutil.Big `json:"withdrawalsVaultTransfer"`
	RewardsVaultTransfer     *hexutil.Big `json:"rewardsVaultTransfer"`

	ValueToFinalizeWithdrawals *hexutil.Big `json:"valueToFinalizeWithdrawals"`
	UnitsToFinalizeWithdrawals *hexutil.Big `json:"unitsToFinalizeWithdrawals"`
	UnitsToBurnForWithdrawals  *hexutil.Big `json:"unitsToBurnForWithdrawals"`
	TotalUnitsToBurn           *hexutil.Big `json:"totalUnitsToBurn"`

	PrincipalBalance *hexutil.Big `json:"principalBalance"`

	PreTotalValue     *hexutil.Big `json:"preTotalValue"`
	PreTotalUnits     *hexutil.Big `json:"preTotalUnits"`
	PostInternalValue *hexutil.Big `json:"postInternalValue"`
	PostInternalUnits *hexutil.Big `json:"postInternalUnits"`
	PostExternalUnits *hexutil.Big `json:"postExternalUnits"`
	PostExternalValue *hexutil.Big `json:"postExternalValue"`
	PostTotalValue    *hexutil.Big `json:"postTotalValue"`
	PostTotalUnits    *hexutil.Big `json:"postTotalUnits"`

	UnitsMintedAsFees *hexutil.Big `json:"unitsMintedAsFees"`
	ConversionRate    *hexutil.Big `json:"conversionRate"`

	FeeRecipients     []quay.Address `json:"feeRecipients"`
	FeeRecipientUnits []*hexutil.Big `json:"feeRecipientUnits"`
	Treasury          quay.Address   `json:"treasury"`
	TreasuryUnits     *hexutil.Big   `json:"treasuryUnits"`
}

func toJSONProjection(p *ledger.Projection) *JSONProjection {
	return &JSONProjection{
		WithdrawalsVaultTransfer:   toHex(p.WithdrawalsVaultTransfer),
		RewardsVaultTransfer:       toHex(p.RewardsVaultTransfer),
		ValueToFinalizeWithdrawals: toHex(p.ValueToFinalizeWithdrawals),
		UnitsToFinalizeWithdrawals: toHex(p.UnitsToFinalizeWithdrawals),
		UnitsToBurnForWithdrawals:  toHex(p.UnitsToBurnForWithdrawals),
		TotalUnitsToBurn:           toHex(p.TotalUnitsToBurn),
		PrincipalBalance:           toHex(p.PrincipalBalance),
		PreTotalValue:              toHex(p.PreTotalValue),
		PreTotalUnits:              toHex(p.PreTotalUnits),
		PostInternalValue:          toHex(p.PostInternalValue),
		PostInternalUnits:          toHex(p.PostInternalUnits),
		PostExternalUnits:          toHex(p.PostExternalUnits),
		PostExternalValue:          toHex(p.PostExternalValue),
		PostTotalValue:             toHex(p.PostTotalValue),
		PostTotalUnits:             toHex(p.PostTotalUnits),
		UnitsMintedAsFees:          toHex(p.UnitsMintedAsFees),
		ConversionRate:             toHex(p.PostConversionRate()),
		FeeRecipients:              p.Fees.Recipients,
		FeeRecipientUnits:          toHexSlice(p.Fees.RecipientUnits),
		Treasury:                   p.Fees.Treasury,
		TreasuryUnits:              toHex(p.Fees.TreasuryUnits),
	}
}

// JSONApplyRequest carries a report submission. Caller must be the
// configured submitter.
type JSONApplyRequest struct {
	Caller quay.Address `json:"caller"`
	Report JSONReport   `json:"report"`
}

// JSONState is the wire form of the persisted ledger totals.
type JSONState struct {
	TotalValue     *hexutil.Big `json:"totalValue"`
	TotalUnits     *hexutil.Big `json:"totalUnits"`
	ExternalUnits  *hexutil.Big `json:"externalUnits"`
	BufferedValue  *hexutil.Big `json:"bufferedValue"`
	ConversionRate *hexutil.Big `json:"conversionRate"`

	LastReportTimestamp uint64 `json:"lastReportTimestamp"`
}

func toHex(v *big.Int) *hexutil.Big {
	return (*hexutil.Big)(v)
}

func fromHex(v *hexutil.Big) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

func toHexSlice(vs []*big.Int) []*hexutil.Big {
	out := make([]*hexutil.Big, len(vs))
	for i, v := range vs {
		out[i] = toHex(v)
	}
	return out
}

func fromHexSlice(vs []*hexutil.Big) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = fromHex(v)
	}
	return out
}
