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

package tweak

import (
	"sync"

	"drivergate/module"
	"drivergate/shared/logger"
)

// WeaveFilterChain aggregates weave filters into a single vote. A file is
// acceptable unless some filter rejects it; a filter that panics is disabled
// and its opinion discarded.
type WeaveFilterChain struct {
	mu      sync.RWMutex
	filters []WeaveFilter
	log     *logger.Logger
}

// NewWeaveFilterChain creates an empty chain; with no filters every file is
// acceptable.
func NewWeaveFilterChain() *WeaveFilterChain {
	return &WeaveFilterChain{log: logger.New("tweak")}
}

// Add appends the filter to the chain.
func (c *WeaveFilterChain) Add(f WeaveFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
}

// Remove drops the filter, compared by identity.
func (c *WeaveFilterChain) Remove(f WeaveFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = removed(c.filters, f)
}

// Acceptable implements WeaveFilter over all chained filters.
func (c *WeaveFilterChain) Acceptable(moduleID int64, class string) bool {
	for _, f := range snapshot(&c.mu, &c.filters) {
		vote, ok := c.ask(f, moduleID, class)
		if !ok {
			c.Remove(f)
			c.log.Module(moduleID).Warn("Disabled weave filter after panic", map[string]interface{}{
				"class": class,
			})
			continue
		}
		if !vote {
			return false
		}
	}
	return true
}

func (c *WeaveFilterChain) ask(f WeaveFilter, moduleID int64, class string) (vote, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return f.Acceptable(moduleID, class), true
}

// LoadFilterChain aggregates load filters into a single vote. A driver is
// loadable unless some filter rejects it; when no filter voted at all, the
// chain falls back to its default policy. A filter that panics is disabled
// and does not count as a voter.
type LoadFilterChain struct {
	mu       sync.RWMutex
	filters  []LoadFilter
	fallback func(module.Module) bool
	log      *logger.Logger
}

// NewLoadFilterChain creates an empty chain with the given default policy,
// applied when no filter voted. A nil policy permits loading from active
// modules only.
func NewLoadFilterChain(fallback func(module.Module) bool) *LoadFilterChain {
	if fallback == nil {
		fallback = func(m module.Module) bool { return m.State() == module.Active }
	}
	return &LoadFilterChain{fallback: fallback, log: logger.New("tweak")}
}

// Add appends the filter to the chain.
func (c *LoadFilterChain) Add(f LoadFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
}

// Remove drops the filter, compared by identity.
func (c *LoadFilterChain) Remove(f LoadFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = removed(c.filters, f)
}

// Loadable implements LoadFilter over all chained filters.
func (c *LoadFilterChain) Loadable(m module.Module, class string) bool {
	voted := false
	for _, f := range snapshot(&c.mu, &c.filters) {
		vote, ok := c.ask(f, m, class)
		if !ok {
			c.Remove(f)
			c.log.Module(m.ID()).Warn("Disabled load filter after panic", map[string]interface{}{
				"class": class,
			})
			continue
		}
		if !vote {
			return false
		}
		voted = true
	}

	return voted || c.fallback(m)
}

func (c *LoadFilterChain) ask(f LoadFilter, m module.Module, class string) (vote, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return f.Loadable(m, class), true
}

// ControlChain aggregates controls. Registration order is the preference
// order, least preferred first: Adjust applies the controls in that order,
// so the control added last has the final say over earlier adjustments. A
// control that panics is disabled; the options keep the adjustments applied
// so far.
type ControlChain struct {
	mu       sync.RWMutex
	controls []Control
	log      *logger.Logger
}

// NewControlChain creates an empty chain; with no controls Adjust leaves the
// options at their defaults.
func NewControlChain() *ControlChain {
	return &ControlChain{log: logger.New("tweak")}
}

// Add appends the control to the chain.
func (c *ControlChain) Add(ctl Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls = append(c.controls, ctl)
}

// Remove drops the control, compared by identity.
func (c *ControlChain) Remove(ctl Control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls = removed(c.controls, ctl)
}

// Adjust implements Control over all chained controls.
func (c *ControlChain) Adjust(o *Options) {
	for _, ctl := range snapshot(&c.mu, &c.controls) {
		if !c.adjust(ctl, o) {
			c.Remove(ctl)
			c.log.Module(o.Module().ID()).Warn("Disabled control after panic", nil)
		}
	}
}

func (c *ControlChain) adjust(ctl Control, o *Options) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	ctl.Adjust(o)
	return true
}

func snapshot[T any](mu *sync.RWMutex, items *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	result := make([]T, len(*items))
	copy(result, *items)
	return result
}

func removed[T comparable](items []T, item T) []T {
	for i, candidate := range items {
		if candidate == item {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}
