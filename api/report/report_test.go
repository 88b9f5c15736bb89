// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package report_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayprotocol/quay/api/report"
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
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func toHex(v *big.Int) *hexutil.Big {
	return (*hexutil.Big)(v)
}

func newServer(t *testing.T, allowApply bool) *httptest.Server {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	engine := ledger.New(quay.BytesToAddress([]byte("engine")), st, ledger.Collaborators{
		Checker: sanity.New(sanity.DefaultLimits()),
		Queue:   withdrawals.New(quay.BytesToAddress([]byte("queue")), st),
		Hub:     vaults.New(quay.BytesToAddress([]byte("hub")), st),
	})
	require.NoError(t, engine.Initialize(&ledger.InitParams{
		Submitter:           submitter,
		Treasury:            treasury,
		FeeRate:             1000,
		TotalValue:          ether(4000),
		TotalUnits:          ether(4000),
		AttestedValidators:  100,
		AttestedBalance:     ether(3200),
		DepositedValidators: 100,
	}))
	require.NoError(t, st.Commit())

	router := mux.NewRouter()
	report.New(engine, allowApply).Mount(router, "/report")

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func rewardReport() *report.JSONReport {
	attested := new(big.Int).Add(ether(3200), big.NewInt(5e17))
	return &report.JSONReport{
		Timestamp:              1000,
		TimeElapsed:            86400,
		AttestedValidators:     100,
		AttestedBalance:        toHex(attested),
		WithdrawalVaultBalance: toHex(ether(1)),
		RewardVaultBalance:     toHex(ether(1)),
		UnitsRequestedToBurn:   toHex(new(big.Int)),
		ConversionRate:         toHex(new(big.Int)),
	}
}

func httpPost(t *testing.T, url string, body []byte) ([]byte, int) {
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	return r, res.StatusCode
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()
	return r, res.StatusCode
}

func TestGetState(t *testing.T) {
	ts := newServer(t, false)

	body, code := httpGet(t, ts.URL+"/report/state")
	require.Equal(t, http.StatusOK, code)

	var st report.JSONState
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Zero(t, ether(4000).Cmp((*big.Int)(st.TotalValue)))
	assert.Zero(t, ether(4000).Cmp((*big.Int)(st.TotalUnits)))
	assert.Zero(t, quay.RatePrecision.Cmp((*big.Int)(st.ConversionRate)))
	assert.Equal(t, uint64(0), st.LastReportTimestamp)
}

func TestPreviewReport(t *testing.T) {
	ts := newServer(t, false)

	reqBody, err := json.Marshal(rewardReport())
	require.NoError(t, err)

	body, code := httpPost(t, ts.URL+"/report/preview", reqBody)
	require.Equal(t, http.StatusOK, code, string(body))

	var proj report.JSONProjection
	require.NoError(t, json.Unmarshal(body, &proj))

	// 4000 + 3200.5 attested - 3200 principal + 2 vault transfers
	wantValue := new(big.Int).Add(ether(4002), big.NewInt(5e17))
	assert.Zero(t, wantValue.Cmp((*big.Int)(proj.PostTotalValue)))
	assert.True(t, (*big.Int)(proj.UnitsMintedAsFees).Sign() > 0)
	assert.True(t, (*big.Int)(proj.ConversionRate).Cmp(quay.RatePrecision) > 0)

	// previews are pure, the repeated call returns the same projection
	again, code := httpPost(t, ts.URL+"/report/preview", reqBody)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, body, again)

	// previews leave the ledger untouched
	stateBody, code := httpGet(t, ts.URL+"/report/state")
	require.Equal(t, http.StatusOK, code)
	var st report.JSONState
	require.NoError(t, json.Unmarshal(stateBody, &st))
	assert.Zero(t, ether(4000).Cmp((*big.Int)(st.TotalValue)))
}

func TestPreviewBadRequest(t *testing.T) {
	ts := newServer(t, false)

	_, code := httpPost(t, ts.URL+"/report/preview", []byte(`{"bogus":1}`))
	assert.Equal(t, http.StatusBadRequest, code)

	// structurally valid but incomplete reports revert
	incomplete := rewardReport()
	incomplete.AttestedBalance = nil
	reqBody, err := json.Marshal(incomplete)
	require.NoError(t, err)
	_, code = httpPost(t, ts.URL+"/report/preview", reqBody)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestApplyReport(t *testing.T) {
	ts := newServer(t, true)

	reqBody, err := json.Marshal(&report.JSONApplyRequest{
		Caller: submitter,
		Report: *rewardReport(),
	})
	require.NoError(t, err)

	body, code := httpPost(t, ts.URL+"/report/apply", reqBody)
	require.Equal(t, http.StatusOK, code, string(body))

	var st report.JSONState
	require.NoError(t, json.Unmarshal(body, &st))
	wantValue := new(big.Int).Add(ether(4002), big.NewInt(5e17))
	assert.Zero(t, wantValue.Cmp((*big.Int)(st.TotalValue)))
	assert.Equal(t, uint64(1000), st.LastReportTimestamp)
	assert.True(t, (*big.Int)(st.ConversionRate).Cmp(quay.RatePrecision) > 0)
}

func TestApplyNotMountedByDefault(t *testing.T) {
	ts := newServer(t, false)

	reqBody, err := json.Marshal(&report.JSONApplyRequest{
		Caller: submitter,
		Report: *rewardReport(),
	})
	require.NoError(t, err)

	_, code := httpPost(t, ts.URL+"/report/apply", reqBody)
	assert.Equal(t, http.StatusNotFound, code)

	// the rest of the module stays up
	_, code = httpGet(t, ts.URL+"/report/state")
	assert.Equal(t, http.StatusOK, code)
}

func TestApplyNotAuthorized(t *testing.T) {
	ts := newServer(t, true)

	reqBody, err := json.Marshal(&report.JSONApplyRequest{
		Caller: quay.BytesToAddress([]byte("stranger")),
		Report: *rewardReport(),
	})
	require.NoError(t, err)

	body, code := httpPost(t, ts.URL+"/report/apply", reqBody)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "caller is not the report submitter")

	// the rejected report must not touch the ledger
	stateBody, code := httpGet(t, ts.URL+"/report/state")
	require.Equal(t, http.StatusOK, code)
	var st report.JSONState
	require.NoError(t, json.Unmarshal(stateBody, &st))
	assert.Zero(t, ether(4000).Cmp((*big.Int)(st.TotalValue)))
	assert.Equal(t, uint64(0), st.LastReportTimestamp)
}
