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

// Package lifecycle reacts to module state changes: it discovers the driver
// classes a module declares, loads them at the right moments and keeps the
// visibility of the module's registrations in sync with its state.
//
// A driver class registers its driver itself when loaded and cannot be
// re-loaded once unloaded, so registrations are kept as long as the module
// stays around; availability is toggled by suspending and resuming instead.
package lifecycle

import (
	"bufio"
	"strings"
	"sync"

	"drivergate/module"
	"drivergate/shared/logger"
	"drivergate/tweak"
)

// ResourceName is the module resource declaring the driver classes, one
// class name per line.
const ResourceName = "drivers"

// Registrar is the part of the registry the controller drives.
type Registrar interface {
	Suspend(moduleID int64)
	Resume(moduleID int64)
	CancelModule(moduleID int64) error
}

// Discover reads the module's driver declaration resource and returns the
// declared class names: trimmed, blank lines ignored, duplicates removed
// with first occurrence order kept. A module without the resource declares
// nothing.
func Discover(m module.Module) []string {
	r, err := m.Resource(ResourceName)
	if err != nil {
		return nil
	}
	defer r.Close()

	var result []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		class := strings.TrimSpace(scanner.Text())
		if class == "" {
			continue
		}
		if _, dup := seen[class]; dup {
			continue
		}
		seen[class] = struct{}{}
		result = append(result, class)
	}
	return result
}

// moduleContext tracks one module under control.
type moduleContext struct {
	m         module.Module
	condition tweak.Condition

	mu      sync.Mutex
	pending map[string]struct{}
}

// Controller observes module lifecycle events and drives driver loading and
// registration visibility.
type Controller struct {
	mu        sync.Mutex
	contexts  map[int64]*moduleContext
	registrar Registrar
	filter    tweak.LoadFilter
	controls  tweak.Control
	log       *logger.Logger
}

// NewController creates a controller driving the given registrar. The load
// filter gates each driver load; the control adjusts the options of every
// newly observed module. Both may be nil.
func NewController(registrar Registrar, filter tweak.LoadFilter, controls tweak.Control) *Controller {
	return &Controller{
		contexts:  make(map[int64]*moduleContext),
		registrar: registrar,
		filter:    filter,
		controls:  controls,
		log:       logger.New("lifecycle"),
	}
}

// Observe processes a state change of the module. The first observation
// discovers the module's declared drivers and lets the controls adjust the
// handling options. While the module's availability condition holds, its
// registrations are resumed and the remaining drivers are loaded; otherwise
// the registrations are suspended and nothing loads.
func (c *Controller) Observe(m module.Module) {
	id := m.ID()

	c.mu.Lock()
	ctx, tracked := c.contexts[id]
	if !tracked {
		ctx = c.adopt(m)
		c.contexts[id] = ctx
	}
	c.mu.Unlock()

	if !ctx.condition.Test(m.State()) {
		c.registrar.Suspend(id)
		return
	}

	c.registrar.Resume(id)
	c.loadPending(ctx)
}

// Remove abandons the module, cancelling all its registrations. Removing an
// unknown module is a no-op apart from the cancellation attempt.
func (c *Controller) Remove(m module.Module) {
	id := m.ID()

	c.mu.Lock()
	delete(c.contexts, id)
	c.mu.Unlock()

	if err := c.registrar.CancelModule(id); err != nil {
		c.log.Module(id).ErrorWithErr("Cancelling module registrations failed", err, nil)
	}
}

// adopt builds the context for a newly observed module; the caller holds the
// controller lock.
func (c *Controller) adopt(m module.Module) *moduleContext {
	declared := Discover(m)
	options := tweak.NewOptions(m, declared)
	if c.controls != nil {
		c.controls.Adjust(options)
	}

	pending := make(map[string]struct{})
	for _, class := range options.Loadable() {
		pending[class] = struct{}{}
	}

	c.log.Module(m.ID()).Info("Module taken under control", map[string]interface{}{
		"declared":  len(declared),
		"loadable":  len(pending),
		"condition": options.Condition().String(),
	})

	return &moduleContext{m: m, pending: pending, condition: options.Condition()}
}

// loadPending tries to load the module's remaining drivers. A class skipped
// by the filter stays pending for the next occasion; a class whose load
// fails is logged and never retried.
func (c *Controller) loadPending(ctx *moduleContext) {
	id := ctx.m.ID()

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	for class := range ctx.pending {
		if c.filter != nil && !c.filter.Loadable(ctx.m, class) {
			continue
		}

		if err := ctx.m.LoadProvider(class); err != nil {
			c.log.Module(id).ErrorWithErr("Loading driver failed", err, map[string]interface{}{
				"class": class,
			})
		} else {
			c.log.Module(id).Debug("Loaded driver", map[string]interface{}{
				"class": class,
			})
		}

		delete(ctx.pending, class)
	}
}
