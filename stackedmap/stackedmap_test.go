// Copyright (c) 2026 The Quay developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quayprotocol/quay/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key any) (any, bool, error) {
		if v, ok := src[key.(string)]; ok {
			return v, true, nil
		}
		return nil, false, nil
	})

	tests := []struct {
		f         func()
		key       string
		wantValue any
		wantExist bool
	}{
		{func() {}, "foo", "bar", true},
		{func() { sm.Push() }, "foo", "bar", true},
		{func() { sm.Put("foo", "baz") }, "foo", "baz", true},
		{func() { sm.Push() }, "foo", "baz", true},
		{func() { sm.Put("foo", "qux") }, "foo", "qux", true},
		{func() { sm.Pop() }, "foo", "baz", true},
		{func() { sm.Pop() }, "foo", "bar", true},
		{func() {}, "qux", nil, false},
	}

	for _, tt := range tests {
		tt.f()
		v, exist, err := sm.Get(tt.key)
		assert.Nil(err)
		assert.Equal(tt.wantValue, v)
		assert.Equal(tt.wantExist, exist)
	}

	sm.Push()
	sm.Push()
	assert.Equal(2, sm.Depth())
	sm.PopTo(0)
	assert.Zero(sm.Depth())
}

func TestPutSameKeyWithinLevel(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(any) (any, bool, error) { return nil, false, nil })

	sm.Push()
	sm.Put("k", 1)

	sm.Push()
	sm.Put("k", 2)
	sm.Put("k", 3)

	v, exist, err := sm.Get("k")
	assert.Nil(err)
	assert.True(exist)
	assert.Equal(3, v)

	// popping the level with repeated writes must fully unwind it
	sm.PopTo(1)
	v, exist, err = sm.Get("k")
	assert.Nil(err)
	assert.True(exist)
	assert.Equal(1, v)

	sm.Pop()
	_, exist, err = sm.Get("k")
	assert.Nil(err)
	assert.False(exist)
}

func TestJournal(t *testing.T) {
	sm := stackedmap.New(func(any) (any, bool, error) { return nil, false, nil })

	sm.Push()
	sm.Put("a", 1)
	sm.Push()
	sm.Put("b", 2)
	sm.Put("a", 3)

	var keys []string
	var values []int
	sm.Journal(func(key, value any) bool {
		keys = append(keys, key.(string))
		values = append(values, value.(int))
		return true
	})
	// insertion order, overwrites included
	assert.Equal(t, []string{"a", "b", "a"}, keys)
	assert.Equal(t, []int{1, 2, 3}, values)

	// early termination
	var count int
	sm.Journal(func(_, _ any) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)

	// popped levels leave the journal
	sm.Pop()
	keys = nil
	sm.Journal(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	assert.Equal(t, []string{"a"}, keys)
}
