// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package quay_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quayprotocol/quay/quay"
)

func TestBlake2b(t *testing.T) {
	data := []byte("hello quay")

	h := quay.NewBlake2b()
	h.Write(data)
	var expected quay.Bytes32
	h.Sum(expected[:0])

	assert.Equal(t, expected, quay.Blake2b(data))

	// multi-part hashing equals hashing the concatenation
	assert.Equal(t, expected, quay.Blake2b(data[:5], data[5:]))

	assert.Equal(t, expected, quay.Blake2bFn(func(w io.Writer) {
		w.Write(data)
	}))
}
