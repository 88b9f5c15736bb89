// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vaults implements the collateral-vault hub: per-vault value
// bookkeeping plus the bad-debt ledger the accounting engine
// internalizes from. Bad debt is tracked twice: the live pending figure
// and the figure frozen at the previous reporting boundary, because the
// applied report must be based on the frame it nominally covers.
package vaults

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/quayprotocol/quay/ledger"
	"github.com/quayprotocol/quay/ledger/reverts"
	"github.com/quayprotocol/quay/quay"
	"github.com/quayprotocol/quay/solidity"
	"github.com/quayprotocol/quay/state"
)

var (
	slotPendingBadDebt = quay.BytesToBytes32([]byte("vaults-pending-bad-debt"))
	slotFrozenBadDebt  = quay.BytesToBytes32([]byte("vaults-frozen-bad-debt"))
	slotVaultCount     = quay.BytesToBytes32([]byte("vaults-count"))
	slotVaults         = quay.BytesToBytes32([]byte("vaults-records"))
)

var errInternalizeTooMuch = reverts.New("vaults: internalize exceeds recorded bad debt")

// Vault is one collateral vault's reported state.
type Vault struct {
	Value    *big.Int
	InOutRaw []byte // rlp-friendly two's-complement flow delta
}

// Hub is the state-backed vault collaborator.
type Hub struct {
	context *solidity.Context
	pending *solidity.Uint256
	frozen  *solidity.Uint256
	count   *solidity.Uint64
	vaults  *solidity.Mapping[*big.Int, *Vault]
}

var _ ledger.VaultHub = (*Hub)(nil)

// New create a hub bound to the given storage address.
func New(addr quay.Address, st *state.State) *Hub {
	context := solidity.NewContext(addr, st)
	return &Hub{
		context: context,
		pending: solidity.NewUint256(context, slotPendingBadDebt),
		frozen:  solidity.NewUint256(context, slotFrozenBadDebt),
		count:   solidity.NewUint64(context, slotVaultCount),
		vaults:  solidity.NewMapping[*big.Int, *Vault](context, slotVaults),
	}
}

// PendingBadDebt returns the currently pending bad-debt units.
func (h *Hub) PendingBadDebt() (*big.Int, error) {
	return h.pending.Get()
}

// FrozenBadDebt returns the bad-debt units frozen at the previous
// reporting boundary.
func (h *Hub) FrozenBadDebt() (*big.Int, error) {
	return h.frozen.Get()
}

// RecordBadDebt adds newly discovered bad debt to the pending figure.
func (h *Hub) RecordBadDebt(units *big.Int) error {
	return h.pending.Add(units)
}

// FreezeFrame snapshots the pending figure as the new frame boundary.
// Invoked once per reporting frame, before the report for that frame is
// produced.
func (h *Hub) FreezeFrame() error {
	pending, err := h.pending.Get()
	if err != nil {
		return err
	}
	h.frozen.Set(pending)
	return nil
}

// InternalizeBadDebt decrements the bad-debt counters once the
// corresponding units moved into the internal pool.
func (h *Hub) InternalizeBadDebt(units *big.Int) error {
	pending, err := h.pending.Get()
	if err != nil {
		return err
	}
	if pending.Cmp(units) < 0 {
		return errInternalizeTooMuch
	}
	if err := h.pending.Sub(units); err != nil {
		return err
	}
	frozen, err := h.frozen.Get()
	if err != nil {
		return err
	}
	if frozen.Cmp(units) < 0 {
		h.frozen.Set(new(big.Int))
		return nil
	}
	return h.frozen.Sub(units)
}

// VaultCount returns the number of known vaults.
func (h *Hub) VaultCount() (uint64, error) {
	return h.count.Get()
}

// GetVault returns the stored record for the given vault index.
func (h *Hub) GetVault(index uint64) (*Vault, error) {
	v, err := h.vaults.Get(new(big.Int).SetUint64(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vault")
	}
	return v, nil
}

// UpdateVaults persists the reported per-vault values and flows.
// Invoked by the report applier with the post-report conversion rate.
func (h *Hub) UpdateVaults(values, inOutDeltas []*big.Int, _ *big.Int) error {
	for i := range values {
		vault := &Vault{
			Value:    values[i],
			InOutRaw: encodeSigned(inOutDeltas[i]),
		}
		if err := h.vaults.Set(new(big.Int).SetUint64(uint64(i)), vault); err != nil {
			return errors.Wrap(err, "failed to store vault")
		}
	}
	h.count.Set(uint64(len(values)))
	return nil
}

// InOutDelta decodes the stored flow delta of a vault.
func (v *Vault) InOutDelta() *big.Int {
	return decodeSigned(v.InOutRaw)
}

// encodeSigned stores a possibly negative big int as sign byte + magnitude.
func encodeSigned(v *big.Int) []byte {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	return append([]byte{sign}, v.Bytes()...)
}

func decodeSigned(raw []byte) *big.Int {
	if len(raw) == 0 {
		return new(big.Int)
	}
	v := new(big.Int).SetBytes(raw[1:])
	if raw[0] == 1 {
		v.Neg(v)
	}
	return v
}
