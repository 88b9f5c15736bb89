// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
)

// distributeFees splits minted fee units pro-rata across the configured
// recipients by weight, floor division. The floor-rounding remainder
// goes entirely to the treasury so the distribution sums exactly.
func distributeFees(unitsToMint *big.Int, cfg *FeeConfig) *FeeDistribution {
	dist := &FeeDistribution{
		Treasury:      cfg.Treasury,
		TreasuryUnits: new(big.Int),
	}
	if unitsToMint.Sign() == 0 {
		return dist
	}

	var totalWeight uint64
	for _, r := range cfg.Recipients {
		totalWeight += r.Weight
	}
	if totalWeight == 0 {
		dist.TreasuryUnits.Set(unitsToMint)
		return dist
	}

	distributed := new(big.Int)
	weightDenom := new(big.Int).SetUint64(totalWeight)
	for _, r := range cfg.Recipients {
		units := new(big.Int).SetUint64(r.Weight)
		units.Mul(units, unitsToMint)
		units.Div(units, weightDenom)

		dist.Recipients = append(dist.Recipients, r.Recipient)
		dist.RecipientUnits = append(dist.RecipientUnits, units)
		distributed.Add(distributed, units)
	}

	dist.TreasuryUnits.Sub(unitsToMint, distributed)
	return dist
}
