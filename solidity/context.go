// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity provides typed storage cells over the ledger state,
// similar to declaring storage variables in a smart contract.
package solidity

import (
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/state"
)

// Context binds storage cells to a contract address within a state.
type Context struct {
	address quay.Address
	state   *state.State
}

// NewContext creates a storage context for the given contract address.
func NewContext(address quay.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

// Address returns the bound contract address.
func (c *Context) Address() quay.Address {
	return c.address
}

// State returns the bound state.
func (c *Context) State() *state.State {
	return c.state
}
