// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package report exposes the accounting engine over HTTP: report
// previews and the current ledger totals.
package report

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/quayprotocol/quay/api/utils"
	"github.com/quayprotocol/quay/cache"
	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
)

// Report is the api module for report previews and ledger state. The
// apply endpoint trusts the caller field of the request body, so it is
// only mounted when allowApply is set (solo mode, or a deployment that
// authenticates submitters upstream).
type Report struct {
	ledger     *ledger.Ledger
	cache      *cache.LRU[quay.Bytes32, *JSONProjection]
	allowApply bool
}

func New(l *ledger.Ledger, allowApply bool) *Report {
	// a preview is pure w.r.t. (ledger state, report body), so a small
	// cache absorbs oracle members polling the same frame
	c, _ := cache.NewLRU[quay.Bytes32, *JSONProjection](64)
	return &Report{
		ledger:     l,
		cache:      c,
		allowApply: allowApply,
	}
}

func (r *Report) handlePreviewReport(w http.ResponseWriter, req *http.Request) error {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return utils.BadRequest(err)
	}

	key, err := r.cacheKey(body)
	if err != nil {
		return err
	}
	proj, err := r.cache.GetOrLoad(key, func(quay.Bytes32) (*JSONProjection, error) {
		var jr JSONReport
		if err := utils.ParseJSON(bytes.NewReader(body), &jr); err != nil {
			return nil, utils.BadRequest(err)
		}
		p, err := r.ledger.Preview(jr.ToLedger())
		if err != nil {
			if reverts.IsRevertErr(err) {
				return nil, utils.BadRequest(err)
			}
			return nil, err
		}
		return toJSONProjection(p), nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, proj)
}

func (r *Report) handleApplyReport(w http.ResponseWriter, req *http.Request) error {
	var ar JSONApplyRequest
	if err := utils.ParseJSON(req.Body, &ar); err != nil {
		return utils.BadRequest(err)
	}
	if err := r.ledger.Apply(ar.Caller, ar.Report.ToLedger(), uint64(time.Now().Unix())); err != nil {
		if reverts.IsRevertErr(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	return r.handleGetState(w, req)
}

func (r *Report) handleGetState(w http.ResponseWriter, _ *http.Request) error {
	totalValue, err := r.ledger.TotalValue()
	if err != nil {
		return err
	}
	totalUnits, err := r.ledger.TotalUnits()
	if err != nil {
		return err
	}
	externalUnits, err := r.ledger.ExternalUnits()
	if err != nil {
		return err
	}
	bufferedValue, err := r.ledger.BufferedValue()
	if err != nil {
		return err
	}
	rate, err := r.ledger.ConversionRate()
	if err != nil {
		return err
	}
	lastTimestamp, err := r.ledger.LastReportTimestamp()
	if err != nil {
		return err
	}

	return utils.WriteJSON(w, &JSONState{
		TotalValue:          toHex(totalValue),
		TotalUnits:          toHex(totalUnits),
		ExternalUnits:       toHex(externalUnits),
		BufferedValue:       toHex(bufferedValue),
		ConversionRate:      toHex(rate),
		LastReportTimestamp: lastTimestamp,
	})
}

// cacheKey fingerprints the request body together with the ledger state
// a preview depends on, so stale entries never survive an applied
// report.
func (r *Report) cacheKey(body []byte) (quay.Bytes32, error) {
	totalValue, err := r.ledger.TotalValue()
	if err != nil {
		return quay.Bytes32{}, err
	}
	totalUnits, err := r.ledger.TotalUnits()
	if err != nil {
		return quay.Bytes32{}, err
	}
	lastTimestamp, err := r.ledger.LastReportTimestamp()
	if err != nil {
		return quay.Bytes32{}, err
	}
	var ts [8]byte
	for i := range ts {
		ts[i] = byte(lastTimestamp >> (8 * (7 - i)))
	}
	return quay.Blake2b(body, totalValue.Bytes(), totalUnits.Bytes(), ts[:]), nil
}

func (r *Report) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/preview").
		Methods(http.MethodPost).
		Name("report_preview").
		HandlerFunc(utils.WrapHandlerFunc(r.handlePreviewReport))
	if r.allowApply {
		sub.Path("/apply").
			Methods(http.MethodPost).
			Name("report_apply").
			HandlerFunc(utils.WrapHandlerFunc(r.handleApplyReport))
	}
	sub.Path("/state").
		Methods(http.MethodGet).
		Name("report_state").
		HandlerFunc(utils.WrapHandlerFunc(r.handleGetState))
}
