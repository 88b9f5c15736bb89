// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sanity implements the report sanity-bounding service: it
// clamps proposed rebase deltas to configured per-frame limits and
// rejects implausible report data outright. A rejection is an
// intentional brake on the oracle, not a defect.
package sanity

import (
	"math/big"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
)

var (
	errZeroTimeElapsed   = reverts.New("sanity: zero time elapsed")
	errFrameTooLong      = reverts.New("sanity: time elapsed exceeds frame limit")
	errOneOffDecline     = reverts.New("sanity: one-off balance decline over limit")
	errAnnualIncrease    = reverts.New("sanity: annualized balance increase over limit")
	errTooManyValidators = reverts.New("sanity: validator appearance rate over limit")
	errImplausibleBurn   = reverts.New("sanity: burn request exceeds internal units")
	errRateDeviation     = reverts.New("sanity: conversion rate deviates from projection")
)

// Limits is the configured bound set, basis points of quay.FeePrecision
// unless stated otherwise.
type Limits struct {
	// MaxOneOffDeclineBP bounds a single-frame decline of the attested
	// balance against the principal balance.
	MaxOneOffDeclineBP uint64 `yaml:"maxOneOffDeclineBP"`
	// MaxAnnualIncreaseBP bounds the annualized growth of the attested
	// balance over the principal balance.
	MaxAnnualIncreaseBP uint64 `yaml:"maxAnnualIncreaseBP"`
	// MaxUnitsBurnPerFrameBP bounds the share of internal units burnt
	// within one frame.
	MaxUnitsBurnPerFrameBP uint64 `yaml:"maxUnitsBurnPerFrameBP"`
	// MaxRebasePerFrameBP bounds the positive value rebase within one
	// frame; vault transfers are smoothed against what is left of it.
	MaxRebasePerFrameBP uint64 `yaml:"maxRebasePerFrameBP"`
	// MaxValidatorAppearancesPerDay bounds newly appeared validators.
	MaxValidatorAppearancesPerDay uint64 `yaml:"maxValidatorAppearancesPerDay"`
	// MaxFrameDuration is the longest acceptable elapsed time, seconds.
	MaxFrameDuration uint64 `yaml:"maxFrameDuration"`
	// MaxRateDeviationBP bounds the deviation of a supplied conversion
	// rate from the projected one.
	MaxRateDeviationBP uint64 `yaml:"maxRateDeviationBP"`
}

// DefaultLimits returns the production defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxOneOffDeclineBP:            500,  // 5%
		MaxAnnualIncreaseBP:           1000, // 10% APR
		MaxUnitsBurnPerFrameBP:        400,  // 4%
		MaxRebasePerFrameBP:           75,   // 0.75%
		MaxValidatorAppearancesPerDay: 43200,
		MaxFrameDuration:              7 * 24 * 60 * 60,
		MaxRateDeviationBP:            1, // 0.01%
	}
}

// Checker bounds applied reports by the configured limits.
type Checker struct {
	limits Limits
}

var _ ledger.SanityChecker = (*Checker)(nil)

func New(limits Limits) *Checker {
	return &Checker{limits: limits}
}

func bp(amount *big.Int, points uint64) *big.Int {
	v := new(big.Int).SetUint64(points)
	v.Mul(v, amount)
	return v.Div(v, new(big.Int).SetUint64(quay.FeePrecision))
}

// SmoothenRebase clamps the proposed deltas so one report cannot move
// the conversion rate by more than the per-frame rebase limit. Consensus
// layer rewards consume the allowance first, then the withdrawal vault,
// then the reward vault.
func (c *Checker) SmoothenRebase(p *ledger.SmoothenParams) (*ledger.SmoothenResult, error) {
	allowance := bp(p.PreInternalValue, c.limits.MaxRebasePerFrameBP)

	// consensus rewards are attested, not transferable; they reduce
	// what the vault transfers may add on top
	clRewards := new(big.Int).Sub(p.AttestedBalance, p.PrincipalBalance)
	if clRewards.Sign() > 0 {
		allowance.Sub(allowance, clRewards)
		if allowance.Sign() < 0 {
			allowance.SetInt64(0)
		}
	}

	withdrawalsTransfer := capAt(p.WithdrawalVaultBalance, allowance)
	allowance.Sub(allowance, withdrawalsTransfer)
	rewardsTransfer := capAt(p.RewardVaultBalance, allowance)

	burnLimit := bp(p.PreInternalUnits, c.limits.MaxUnitsBurnPerFrameBP)
	unitsForWithdrawals := capAt(p.UnitsToFinalizeWithdrawals, burnLimit)

	totalToBurn := new(big.Int).Add(p.UnitsToFinalizeWithdrawals, p.UnitsRequestedToBurn)
	totalToBurn = capAt(totalToBurn, burnLimit)
	if totalToBurn.Cmp(unitsForWithdrawals) < 0 {
		totalToBurn.Set(unitsForWithdrawals)
	}

	return &ledger.SmoothenResult{
		WithdrawalsVaultTransfer:  withdrawalsTransfer,
		RewardsVaultTransfer:      rewardsTransfer,
		UnitsToBurnForWithdrawals: unitsForWithdrawals,
		TotalUnitsToBurn:          totalToBurn,
	}, nil
}

// CheckReportBounds validates elapsed time, balance deltas, the burn
// request and the validator appearance rate.
func (c *Checker) CheckReportBounds(b *ledger.ReportBounds) error {
	if b.TimeElapsed == 0 {
		return errZeroTimeElapsed
	}
	if b.TimeElapsed > c.limits.MaxFrameDuration {
		return errFrameTooLong
	}

	// burn queues hold internal units, a request above the pre-report
	// internal supply cannot be genuine
	if b.UnitsRequestedToBurn.Cmp(b.PreInternalUnits) > 0 {
		return errImplausibleBurn
	}

	if b.AttestedBalance.Cmp(b.PrincipalBalance) < 0 {
		decline := new(big.Int).Sub(b.PrincipalBalance, b.AttestedBalance)
		if decline.Cmp(bp(b.PrincipalBalance, c.limits.MaxOneOffDeclineBP)) > 0 {
			return errOneOffDecline
		}
	} else if b.PrincipalBalance.Sign() > 0 {
		increase := new(big.Int).Sub(b.AttestedBalance, b.PrincipalBalance)
		// annualized: increase * secondsPerYear <= principal * elapsed * limitBP / precision
		lhs := new(big.Int).Mul(increase, new(big.Int).SetUint64(quay.SecondsPerYear))
		rhs := bp(b.PrincipalBalance, c.limits.MaxAnnualIncreaseBP)
		rhs.Mul(rhs, new(big.Int).SetUint64(b.TimeElapsed))
		if lhs.Cmp(rhs) > 0 {
			return errAnnualIncrease
		}
	}

	appeared := b.AttestedValidators - b.PreAttestedValidators
	days := (b.TimeElapsed + 24*60*60 - 1) / (24 * 60 * 60)
	if appeared > c.limits.MaxValidatorAppearancesPerDay*days {
		return errTooManyValidators
	}
	return nil
}

// CheckConversionRate verifies a supplied rate against the projected
// post-report rate within the configured deviation.
func (c *Checker) CheckConversionRate(postTotalValue, postTotalUnits, _, _, rate *big.Int) error {
	actual := new(big.Int).Mul(postTotalValue, quay.RatePrecision)
	actual.Div(actual, postTotalUnits)

	diff := new(big.Int).Sub(rate, actual)
	diff.Abs(diff)
	if actual.Sign() == 0 {
		if diff.Sign() == 0 {
			return nil
		}
		return errRateDeviation
	}
	deviation := diff.Mul(diff, new(big.Int).SetUint64(quay.FeePrecision))
	deviation.Div(deviation, actual)
	if deviation.CmpAbs(new(big.Int).SetUint64(c.limits.MaxRateDeviationBP)) > 0 {
		return errRateDeviation
	}
	return nil
}

func capAt(v, limit *big.Int) *big.Int {
	if v.Cmp(limit) > 0 {
		return new(big.Int).Set(limit)
	}
	return new(big.Int).Set(v)
}
