// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package burn tracks claim units queued for permanent retirement.
// Two independent queues exist: cover burns absorb losses on behalf of
// the pool, non-cover burns retire units surrendered by their holders
// (withdrawal finalization included). Committing consumes the cover
// queue first.
package burn

import (
	"math/big"

	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
)

var (
	slotCoverRequested    = quay.BytesToBytes32([]byte("burn-cover-requested"))
	slotNonCoverRequested = quay.BytesToBytes32([]byte("burn-noncover-requested"))
	slotCoverBurnt        = quay.BytesToBytes32([]byte("burn-cover-burnt"))
	slotNonCoverBurnt     = quay.BytesToBytes32([]byte("burn-noncover-burnt"))
)

var (
	errZeroBurnRequest = reverts.New("burn: zero burn amount requested")
	errExcessiveBurn   = reverts.New("burn: commit exceeds requested units")
)

// Service manages the two burn queues and their lifetime-burnt totals.
// The requested counters must never go negative and the burnt totals
// only ever grow.
type Service struct {
	coverRequested    *solidity.Uint256
	nonCoverRequested *solidity.Uint256
	coverBurnt        *solidity.Uint256
	nonCoverBurnt     *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		coverRequested:    solidity.NewUint256(sctx, slotCoverRequested),
		nonCoverRequested: solidity.NewUint256(sctx, slotNonCoverRequested),
		coverBurnt:        solidity.NewUint256(sctx, slotCoverBurnt),
		nonCoverBurnt:     solidity.NewUint256(sctx, slotNonCoverBurnt),
	}
}

// Requested returns the units requested but not yet burnt, per queue.
func (s *Service) Requested() (cover, nonCover *big.Int, err error) {
	if cover, err = s.coverRequested.Get(); err != nil {
		return nil, nil, err
	}
	if nonCover, err = s.nonCoverRequested.Get(); err != nil {
		return nil, nil, err
	}
	return cover, nonCover, nil
}

// TotalRequested returns the sum of both queues.
func (s *Service) TotalRequested() (*big.Int, error) {
	cover, nonCover, err := s.Requested()
	if err != nil {
		return nil, err
	}
	return cover.Add(cover, nonCover), nil
}

// Burnt returns the lifetime-burnt totals, per queue.
func (s *Service) Burnt() (cover, nonCover *big.Int, err error) {
	if cover, err = s.coverBurnt.Get(); err != nil {
		return nil, nil, err
	}
	if nonCover, err = s.nonCoverBurnt.Get(); err != nil {
		return nil, nil, err
	}
	return cover, nonCover, nil
}

// RequestBurn queues units for burning. Zero amounts are rejected.
func (s *Service) RequestBurn(units *big.Int, cover bool) error {
	if units == nil || units.Sign() <= 0 {
		return errZeroBurnRequest
	}
	if cover {
		return s.coverRequested.Add(units)
	}
	return s.nonCoverRequested.Add(units)
}

// Commit burns the given total, consuming the cover queue first and the
// non-cover queue for the remainder. Committing more than both queues
// hold is a defect in the caller and reverts.
// It returns the split actually burnt from each queue.
func (s *Service) Commit(total *big.Int) (coverBurnt, nonCoverBurnt *big.Int, err error) {
	if total == nil || total.Sign() <= 0 {
		return nil, nil, errZeroBurnRequest
	}

	cover, nonCover, err := s.Requested()
	if err != nil {
		return nil, nil, err
	}
	if new(big.Int).Add(cover, nonCover).Cmp(total) < 0 {
		return nil, nil, errExcessiveBurn
	}

	coverBurnt = new(big.Int).Set(total)
	if coverBurnt.Cmp(cover) > 0 {
		coverBurnt.Set(cover)
	}
	nonCoverBurnt = new(big.Int).Sub(total, coverBurnt)

	if coverBurnt.Sign() > 0 {
		if err := s.coverRequested.Sub(coverBurnt); err != nil {
			return nil, nil, err
		}
		if err := s.coverBurnt.Add(coverBurnt); err != nil {
			return nil, nil, err
		}
	}
	if nonCoverBurnt.Sign() > 0 {
		if err := s.nonCoverRequested.Sub(nonCoverBurnt); err != nil {
			return nil, nil, err
		}
		if err := s.nonCoverBurnt.Add(nonCoverBurnt); err != nil {
			return nil, nil, err
		}
	}
	return coverBurnt, nonCoverBurnt, nil
}
