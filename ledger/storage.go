// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
	"github.com/quayprotocol/quay/state"
)

var (
	slotAttestedValidators  = nameToSlot("attested-validators")
	slotAttestedBalance     = nameToSlot("attested-balance")
	slotDepositedValidators = nameToSlot("deposited-validators")
	slotTotalValue          = nameToSlot("total-pooled-value")
	slotTotalUnits          = nameToSlot("total-claim-units")
	slotExternalUnits       = nameToSlot("external-units")
	slotExternalValue       = nameToSlot("external-value")
	slotBufferedValue       = nameToSlot("buffered-value")
	slotLastFinalizedBatch  = nameToSlot("last-finalized-batch")
	slotLastReportTimestamp = nameToSlot("last-report-timestamp")
	slotSubmitter           = nameToSlot("report-submitter")
	slotTreasury            = nameToSlot("fee-treasury")
	slotFeeRate             = nameToSlot("fee-rate")
	slotFeeRecipients       = nameToSlot("fee-recipients")
	slotUnitBalances        = nameToSlot("unit-balances")
	slotLastRebase          = nameToSlot("last-rebase")
)

func nameToSlot(name string) quay.Bytes32 {
	return quay.BytesToBytes32([]byte(name))
}

// storage represents the root storage of the accounting ledger.
type storage struct {
	context *solidity.Context

	attestedValidators  *solidity.Uint64
	attestedBalance     *solidity.Uint256
	depositedValidators *solidity.Uint64
	totalValue          *solidity.Uint256
	totalUnits          *solidity.Uint256
	externalUnits       *solidity.Uint256
	externalValue       *solidity.Uint256
	bufferedValue       *solidity.Uint256
	lastFinalizedBatch  *solidity.Uint64
	lastReportTimestamp *solidity.Uint64
	submitter           *solidity.Address
	treasury            *solidity.Address
	feeRate             *solidity.Uint64
	unitBalances        *solidity.Mapping[quay.Address, *big.Int]
}

func newStorage(addr quay.Address, st *state.State) *storage {
	context := solidity.NewContext(addr, st)
	return &storage{
		context:             context,
		attestedValidators:  solidity.NewUint64(context, slotAttestedValidators),
		attestedBalance:     solidity.NewUint256(context, slotAttestedBalance),
		depositedValidators: solidity.NewUint64(context, slotDepositedValidators),
		totalValue:          solidity.NewUint256(context, slotTotalValue),
		totalUnits:          solidity.NewUint256(context, slotTotalUnits),
		externalUnits:       solidity.NewUint256(context, slotExternalUnits),
		externalValue:       solidity.NewUint256(context, slotExternalValue),
		bufferedValue:       solidity.NewUint256(context, slotBufferedValue),
		lastFinalizedBatch:  solidity.NewUint64(context, slotLastFinalizedBatch),
		lastReportTimestamp: solidity.NewUint64(context, slotLastReportTimestamp),
		submitter:           solidity.NewAddress(context, slotSubmitter),
		treasury:            solidity.NewAddress(context, slotTreasury),
		feeRate:             solidity.NewUint64(context, slotFeeRate),
		unitBalances:        solidity.NewMapping[quay.Address, *big.Int](context, slotUnitBalances),
	}
}

func (s *storage) FeeRecipients() ([]FeeRecipient, error) {
	var recipients []FeeRecipient
	err := s.context.State().DecodeStorage(s.context.Address(), slotFeeRecipients, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &recipients)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get fee recipients")
	}
	return recipients, nil
}

func (s *storage) SetFeeRecipients(recipients []FeeRecipient) error {
	err := s.context.State().EncodeStorage(s.context.Address(), slotFeeRecipients, func() ([]byte, error) {
		if len(recipients) == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(recipients)
	})
	return errors.Wrap(err, "failed to set fee recipients")
}

func (s *storage) FeeConfig() (*FeeConfig, error) {
	rate, err := s.feeRate.Get()
	if err != nil {
		return nil, err
	}
	recipients, err := s.FeeRecipients()
	if err != nil {
		return nil, err
	}
	treasury, err := s.treasury.Get()
	if err != nil {
		return nil, err
	}
	return &FeeConfig{Rate: rate, Recipients: recipients, Treasury: treasury}, nil
}

func (s *storage) UnitBalance(addr quay.Address) (*big.Int, error) {
	bal, err := s.unitBalances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unit balance")
	}
	if bal == nil {
		bal = new(big.Int)
	}
	return bal, nil
}

func (s *storage) AddUnitBalance(addr quay.Address, units *big.Int) error {
	bal, err := s.UnitBalance(addr)
	if err != nil {
		return err
	}
	if err := s.unitBalances.Set(addr, bal.Add(bal, units)); err != nil {
		return errors.Wrap(err, "failed to set unit balance")
	}
	return nil
}

func (s *storage) LastRebase() (*RebaseRecord, error) {
	var rec *RebaseRecord
	err := s.context.State().DecodeStorage(s.context.Address(), slotLastRebase, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		rec = new(RebaseRecord)
		return rlp.DecodeBytes(raw, rec)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last rebase record")
	}
	return rec, nil
}

func (s *storage) SetLastRebase(rec *RebaseRecord) error {
	err := s.context.State().EncodeStorage(s.context.Address(), slotLastRebase, func() ([]byte, error) {
		return rlp.EncodeToBytes(rec)
	})
	return errors.Wrap(err, "failed to set last rebase record")
}
