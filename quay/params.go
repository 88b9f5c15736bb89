// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package quay

import "math/big"

// Constants of the protocol ledger.
const (
	// FramePeriod is the nominal time interval between two consecutive
	// attested reports, in seconds.
	FramePeriod uint64 = 24 * 60 * 60

	// FeePrecision is the denominator of all basis-point fee rates.
	FeePrecision uint64 = 10000

	// SecondsPerYear is used by annual rebase bound checks.
	SecondsPerYear uint64 = 365 * 24 * 60 * 60
)

var (
	// DepositSize is the fixed per-validator deposit on the consensus
	// layer, in wei. Every freshly appeared validator contributes exactly
	// this amount of principal to the attested balance.
	DepositSize = new(big.Int).Mul(big.NewInt(32), big.NewInt(1e18))

	// RatePrecision scales the conversion rate (value per claim unit).
	RatePrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)
)
