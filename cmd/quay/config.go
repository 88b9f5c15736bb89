// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/sanity"
)

// Config is the daemon configuration file.
type Config struct {
	// Submitter is the only address allowed to apply reports.
	Submitter string `yaml:"submitter"`
	Treasury  string `yaml:"treasury"`
	// FeeRateBP is the protocol fee in basis points.
	FeeRateBP     uint64               `yaml:"feeRateBP"`
	FeeRecipients []FeeRecipientConfig `yaml:"feeRecipients"`

	Genesis GenesisConfig `yaml:"genesis"`
	Limits  sanity.Limits `yaml:"limits"`
}

type FeeRecipientConfig struct {
	Recipient string `yaml:"recipient"`
	Weight    uint64 `yaml:"weight"`
}

// GenesisConfig seeds the ledger on first start. Values are decimal
// strings, wei / units.
type GenesisConfig struct {
	TotalValue          string `yaml:"totalValue"`
	TotalUnits          string `yaml:"totalUnits"`
	AttestedValidators  uint64 `yaml:"attestedValidators"`
	AttestedBalance     string `yaml:"attestedBalance"`
	DepositedValidators uint64 `yaml:"depositedValidators"`
}

func loadConfig(path string) (*Config, error) {
	config := &Config{Limits: sanity.DefaultLimits()}
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	return config, nil
}

// initParams converts the file form into ledger genesis parameters.
func (c *Config) initParams() (*ledger.InitParams, error) {
	params := &ledger.InitParams{
		FeeRate: c.FeeRateBP,
	}

	if c.Submitter != "" {
		addr, err := quay.ParseAddress(c.Submitter)
		if err != nil {
			return nil, errors.Wrap(err, "submitter")
		}
		params.Submitter = *addr
	}
	if c.Treasury != "" {
		addr, err := quay.ParseAddress(c.Treasury)
		if err != nil {
			return nil, errors.Wrap(err, "treasury")
		}
		params.Treasury = *addr
	}
	for _, r := range c.FeeRecipients {
		addr, err := quay.ParseAddress(r.Recipient)
		if err != nil {
			return nil, errors.Wrap(err, "fee recipient")
		}
		params.Recipients = append(params.Recipients, ledger.FeeRecipient{
			Recipient: *addr,
			Weight:    r.Weight,
		})
	}

	var err error
	if params.TotalValue, err = parseBig(c.Genesis.TotalValue); err != nil {
		return nil, errors.Wrap(err, "genesis totalValue")
	}
	if params.TotalUnits, err = parseBig(c.Genesis.TotalUnits); err != nil {
		return nil, errors.Wrap(err, "genesis totalUnits")
	}
	if params.AttestedBalance, err = parseBig(c.Genesis.AttestedBalance); err != nil {
		return nil, errors.Wrap(err, "genesis attestedBalance")
	}
	params.AttestedValidators = c.Genesis.AttestedValidators
	params.DepositedValidators = c.Genesis.DepositedValidators
	return params, nil
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid decimal number %q", s)
	}
	return v, nil
}
