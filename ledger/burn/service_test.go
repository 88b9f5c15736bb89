// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package burn

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quayprotocol/quay/lvldb"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
	"github.com/quayprotocol/quay/state"
)

func newTestService() *Service {
	db, _ := lvldb.NewMem()
	st := state.New(db)
	return New(solidity.NewContext(quay.BytesToAddress([]byte("burner")), st))
}

func TestRequestBurn(t *testing.T) {
	svc := newTestService()

	assert.Error(t, svc.RequestBurn(new(big.Int), false))
	assert.Error(t, svc.RequestBurn(big.NewInt(-1), true))
	assert.Error(t, svc.RequestBurn(nil, true))

	assert.NoError(t, svc.RequestBurn(big.NewInt(100), true))
	assert.NoError(t, svc.RequestBurn(big.NewInt(30), false))
	assert.NoError(t, svc.RequestBurn(big.NewInt(70), false))

	cover, nonCover, err := svc.Requested()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(100), cover)
	assert.Equal(t, big.NewInt(100), nonCover)

	total, err := svc.TotalRequested()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(200), total)
}

func TestCommitConsumesCoverFirst(t *testing.T) {
	svc := newTestService()

	assert.NoError(t, svc.RequestBurn(big.NewInt(100), true))
	assert.NoError(t, svc.RequestBurn(big.NewInt(100), false))

	coverBurnt, nonCoverBurnt, err := svc.Commit(big.NewInt(150))
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(100), coverBurnt)
	assert.Equal(t, big.NewInt(50), nonCoverBurnt)

	cover, nonCover, err := svc.Requested()
	assert.NoError(t, err)
	assert.True(t, cover.Sign() == 0)
	assert.Equal(t, big.NewInt(50), nonCover)

	cover, nonCover, err = svc.Burnt()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(100), cover)
	assert.Equal(t, big.NewInt(50), nonCover)
}

func TestCommitExactSum(t *testing.T) {
	svc := newTestService()

	assert.NoError(t, svc.RequestBurn(big.NewInt(40), true))
	assert.NoError(t, svc.RequestBurn(big.NewInt(60), false))

	coverBurnt, nonCoverBurnt, err := svc.Commit(big.NewInt(100))
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(40), coverBurnt)
	assert.Equal(t, big.NewInt(60), nonCoverBurnt)

	total, err := svc.TotalRequested()
	assert.NoError(t, err)
	assert.True(t, total.Sign() == 0)
}

func TestCommitExcessive(t *testing.T) {
	svc := newTestService()

	assert.NoError(t, svc.RequestBurn(big.NewInt(50), false))

	_, _, err := svc.Commit(big.NewInt(51))
	assert.EqualError(t, err, "burn: commit exceeds requested units")

	_, _, err = svc.Commit(new(big.Int))
	assert.Error(t, err)

	// queue untouched by the failed commits
	total, err := svc.TotalRequested()
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(50), total)
}
