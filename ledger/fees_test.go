// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quayprotocol/quay/quay"
)

func TestDistributeFeesProRata(t *testing.T) {
	r1 := quay.BytesToAddress([]byte("r1"))
	r2 := quay.BytesToAddress([]byte("r2"))
	treasury := quay.BytesToAddress([]byte("treasury"))

	cfg := &FeeConfig{
		Rate: 1000,
		Recipients: []FeeRecipient{
			{Recipient: r1, Weight: 2},
			{Recipient: r2, Weight: 1},
		},
		Treasury: treasury,
	}

	dist := distributeFees(big.NewInt(100), cfg)
	assert.Equal(t, []quay.Address{r1, r2}, dist.Recipients)
	assert.Equal(t, big.NewInt(66), dist.RecipientUnits[0])
	assert.Equal(t, big.NewInt(33), dist.RecipientUnits[1])
	// floor remainder lands in the treasury so the split sums exactly
	assert.Equal(t, big.NewInt(1), dist.TreasuryUnits)
	assert.Equal(t, big.NewInt(100), dist.Total())
}

func TestDistributeFeesNoRecipients(t *testing.T) {
	treasury := quay.BytesToAddress([]byte("treasury"))
	cfg := &FeeConfig{Rate: 500, Treasury: treasury}

	dist := distributeFees(big.NewInt(77), cfg)
	assert.Empty(t, dist.Recipients)
	assert.Equal(t, big.NewInt(77), dist.TreasuryUnits)
	assert.Equal(t, treasury, dist.Treasury)
}

func TestDistributeFeesZeroMint(t *testing.T) {
	cfg := &FeeConfig{
		Rate:       1000,
		Recipients: []FeeRecipient{{Recipient: quay.BytesToAddress([]byte("r1")), Weight: 1}},
		Treasury:   quay.BytesToAddress([]byte("treasury")),
	}

	dist := distributeFees(new(big.Int), cfg)
	assert.Empty(t, dist.Recipients)
	assert.True(t, dist.TreasuryUnits.Sign() == 0)
	assert.True(t, dist.Total().Sign() == 0)
}

func TestDistributeFeesExactSum(t *testing.T) {
	cfg := &FeeConfig{
		Recipients: []FeeRecipient{
			{Recipient: quay.BytesToAddress([]byte("a")), Weight: 3},
			{Recipient: quay.BytesToAddress([]byte("b")), Weight: 5},
			{Recipient: quay.BytesToAddress([]byte("c")), Weight: 7},
		},
		Treasury: quay.BytesToAddress([]byte("treasury")),
	}

	mint, _ := new(big.Int).SetString("991080277502477700", 10)
	dist := distributeFees(mint, cfg)
	assert.Zero(t, mint.Cmp(dist.Total()))
}
