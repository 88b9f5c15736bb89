// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRU(t *testing.T) {
	_, err := NewLRU[string, int](0)
	assert.Error(t, err)

	c, err := NewLRU[string, int](16)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestGetOrLoad(t *testing.T) {
	c, err := NewLRU[string, string](16)
	require.NoError(t, err)

	var loads int
	loader := func(key string) (string, error) {
		loads++
		return key + "-value", nil
	}

	v, err := c.GetOrLoad("k", loader)
	require.NoError(t, err)
	assert.Equal(t, "k-value", v)
	assert.Equal(t, 1, loads)

	// second hit comes from the cache
	v, err = c.GetOrLoad("k", loader)
	require.NoError(t, err)
	assert.Equal(t, "k-value", v)
	assert.Equal(t, 1, loads)

	// load failures are not cached
	_, err = c.GetOrLoad("bad", func(string) (string, error) {
		return "", errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	_, ok := c.Get("bad")
	assert.False(t, ok)
}
