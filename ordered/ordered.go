// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ordered

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// Item is a single key/value entry of a Map.
type Item[K comparable, V any] struct {
	key   K
	value V
}

// Key returns the key of the item.
func (it Item[K, V]) Key() K { return it.key }

// Value returns the value of the item.
func (it Item[K, V]) Value() V { return it.value }

func (it Item[K, V]) String() string {
	return fmt.Sprintf("[%v=%v]", it.key, it.value)
}

// CompareFunc establishes the order of two items. It must return a negative
// number when a sorts before b, zero when they are equivalent and a positive
// number otherwise.
type CompareFunc[K comparable, V any] func(a, b Item[K, V]) int

// Map keeps unique key/value entries and serves immutable snapshots of them
// ordered by the comparator supplied at construction.
//
// All mutations are serialized by a single lock. Snapshot reads never block a
// concurrent mutation: they either reuse the currently published snapshot or
// rebuild it once under the lock (double-checked), so concurrent readers share
// one rebuild. Every mutation invalidates both cached views together.
type Map[K comparable, V any] struct {
	compare CompareFunc[K, V]

	mu      sync.Mutex
	mapping map[K]Item[K, V]

	// Cached snapshots; nil means invalidated. Published slices are never
	// mutated after the store.
	items  atomic.Pointer[[]Item[K, V]]
	values atomic.Pointer[[]V]
}

// NewMap creates an empty Map ordered by the given comparator.
func NewMap[K comparable, V any](compare CompareFunc[K, V]) *Map[K, V] {
	if compare == nil {
		panic("ordered: nil comparator")
	}

	m := &Map[K, V]{
		compare: compare,
		mapping: make(map[K]Item[K, V]),
	}
	m.items.Store(&[]Item[K, V]{})
	m.values.Store(&[]V{})
	return m
}

// Add inserts the entry unless the key is already present. It reports whether
// this call inserted the entry; a false result leaves the Map unchanged.
func (m *Map[K, V]) Add(key K, value V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mapping[key]; exists {
		return false
	}

	m.mapping[key] = Item[K, V]{key: key, value: value}
	m.invalidate()
	return true
}

// Set inserts or replaces the entry for the key, returning the previous item
// if there was one.
func (m *Map[K, V]) Set(key K, value V) (Item[K, V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, existed := m.mapping[key]
	m.mapping[key] = Item[K, V]{key: key, value: value}
	m.invalidate()
	return previous, existed
}

// Remove deletes the entry for the key, returning the removed item if there
// was one.
func (m *Map[K, V]) Remove(key K) (Item[K, V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed, existed := m.mapping[key]
	if existed {
		delete(m.mapping, key)
		m.invalidate()
	}

	return removed, existed
}

// RemoveIf deletes the entry for the key only when the condition holds for the
// currently stored item, atomically with the check.
func (m *Map[K, V]) RemoveIf(key K, condition func(Item[K, V]) bool) (Item[K, V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, existed := m.mapping[key]
	if !existed || !condition(item) {
		return Item[K, V]{}, false
	}

	delete(m.mapping, key)
	m.invalidate()
	return item, true
}

// Get returns the item stored for the key if any.
func (m *Map[K, V]) Get(key K) (Item[K, V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, existed := m.mapping[key]
	return item, existed
}

// Value returns the value stored for the key if any.
func (m *Map[K, V]) Value(key K) (V, bool) {
	item, existed := m.Get(key)
	return item.value, existed
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mapping)
}

// Items returns an immutable snapshot of all items in comparator order. The
// returned slice must not be modified.
func (m *Map[K, V]) Items() []Item[K, V] {
	if snapshot := m.items.Load(); snapshot != nil {
		return *snapshot
	}
	return m.refresh()
}

// Values returns an immutable snapshot of all values in comparator order. The
// returned slice must not be modified.
func (m *Map[K, V]) Values() []V {
	if snapshot := m.values.Load(); snapshot != nil {
		return *snapshot
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if snapshot := m.values.Load(); snapshot != nil {
		return *snapshot
	}

	items := m.refreshLocked()
	values := make([]V, len(items))
	for i, item := range items {
		values[i] = item.value
	}

	m.values.Store(&values)
	return values
}

// refresh rebuilds the item snapshot under the lock unless another reader got
// there first.
func (m *Map[K, V]) refresh() []Item[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked()
}

func (m *Map[K, V]) refreshLocked() []Item[K, V] {
	if snapshot := m.items.Load(); snapshot != nil {
		return *snapshot
	}

	items := make([]Item[K, V], 0, len(m.mapping))
	for _, item := range m.mapping {
		items = append(items, item)
	}
	slices.SortFunc(items, m.compare)

	m.items.Store(&items)
	return items
}

// invalidate drops both cached views; the caller holds the lock.
func (m *Map[K, V]) invalidate() {
	m.items.Store(nil)
	m.values.Store(nil)
}
