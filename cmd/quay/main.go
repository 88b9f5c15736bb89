// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/quayprotocol/quay/api"
	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/log"
	"github.com/quayprotocol/quay/lvldb"
	"github.com/quayprotocol/quay/metrics"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/sanity"
	"github.com/quayprotocol/quay/state"
	"github.com/quayprotocol/quay/vaults"
	"github.com/quayprotocol/quay/withdrawals"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

// well-known storage addresses of the engine and its collaborators
var (
	ledgerAddr = quay.BytesToAddress([]byte("quay-ledger"))
	queueAddr  = quay.BytesToAddress([]byte("quay-withdrawals"))
	hubAddr    = quay.BytesToAddress([]byte("quay-vaults"))
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Quay",
		Usage:     "Node of the Quay accounting engine",
		Copyright: "2026 The Quay developers",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiAllowApplyFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "in-memory instance for test & dev",
				Flags: []cli.Flag{
					configFlag,
					apiAddrFlag,
					apiCorsFlag,
					verbosityFlag,
					jsonLogsFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	initLogger(ctx)
	defer log.Info("exited")

	mainDB := openMainDB(ctx)
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	return runNode(ctx, mainDB, ctx.Bool(apiAllowApplyFlag.Name))
}

func soloAction(ctx *cli.Context) error {
	initLogger(ctx)
	defer log.Info("exited")

	mainDB := openMemMainDB()
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	// solo is a throwaway instance, applying reports is its point
	return runNode(ctx, mainDB, true)
}

func runNode(ctx *cli.Context, mainDB *lvldb.LevelDB, allowApply bool) error {
	config, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		metricsSrv := startMetricsServer(ctx)
		defer func() { log.Info("stopping metrics server..."); metricsSrv.Shutdown(context.Background()) }()
	}

	st := state.New(mainDB)
	queue := withdrawals.New(queueAddr, st)
	hub := vaults.New(hubAddr, st)
	engine := ledger.New(ledgerAddr, st, ledger.Collaborators{
		Checker: sanity.New(config.Limits),
		Queue:   queue,
		Hub:     hub,
	})

	if err := initializeLedger(engine, st, config); err != nil {
		return err
	}

	apiHandler := api.New(engine, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		PprofOn:        ctx.Bool(pprofFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
		AllowApply:     allowApply,
	})
	apiSrv, apiURL := startAPIServer(ctx, apiHandler)
	defer func() { log.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	log.Info("node started", "version", fullVersion(), "api", apiURL)

	<-handleExitSignal().Done()
	return nil
}

// initializeLedger seeds the genesis ledger state on first start. A
// non-zero submitter marks an already initialized database.
func initializeLedger(engine *ledger.Ledger, st *state.State, config *Config) error {
	submitter, err := engine.Submitter()
	if err != nil {
		return err
	}
	if !submitter.IsZero() {
		return nil
	}

	params, err := config.initParams()
	if err != nil {
		return err
	}
	if params.Submitter.IsZero() {
		return fmt.Errorf("config: submitter is required to initialize a fresh ledger")
	}
	if err := engine.Initialize(params); err != nil {
		return err
	}
	if err := st.Commit(); err != nil {
		return err
	}
	log.Info("ledger initialized",
		"submitter", params.Submitter,
		"totalUnits", params.TotalUnits,
		"totalValue", params.TotalValue,
	)
	return nil
}
