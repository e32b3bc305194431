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

// Package boot assembles the drivergate runtime: the module-aware registry
// bound to the capability index, the thunk binding with the drivermgr
// fallback, the lifecycle controller, the tweak chains and the optional
// status endpoint.
package boot

import (
	"context"
	"errors"

	"drivergate/config"
	"drivergate/driver"
	"drivergate/drivermgr"
	"drivergate/lifecycle"
	"drivergate/ops"
	"drivergate/registry"
	"drivergate/shared/logger"
	"drivergate/thunk"
	"drivergate/tweak"
	"drivergate/weave"
)

// Runtime is a started drivergate instance.
type Runtime struct {
	cfg          *config.Runtime
	registry     *registry.Registry
	index        *ops.CapabilityIndex
	controller   *lifecycle.Controller
	hook         *weave.Hook
	weaveFilters *tweak.WeaveFilterChain
	loadFilters  *tweak.LoadFilterChain
	controls     *tweak.ControlChain
	status       *ops.StatusServer
	log          *logger.Logger
	stopped      bool
}

// defaultCondition applies the configured availability condition before any
// registered control gets its say.
type defaultCondition struct {
	condition tweak.Condition
}

func (c defaultCondition) Adjust(o *tweak.Options) {
	o.SetCondition(c.condition)
}

// Start wires and activates the runtime. While the runtime is up, calls
// through the thunk reach the module-aware registry backed by the drivermgr
// fallback; Stop restores the plain drivermgr behavior.
func Start(cfg *config.Runtime) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	condition, err := cfg.Publication.Condition()
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:          cfg,
		registry:     registry.New(),
		index:        ops.NewCapabilityIndex(),
		weaveFilters: tweak.NewWeaveFilterChain(),
		loadFilters:  tweak.NewLoadFilterChain(nil),
		controls:     tweak.NewControlChain(),
		log:          logger.New("boot"),
	}

	r.controls.Add(defaultCondition{condition: condition})
	r.registry.Bind(r.index)
	r.controller = lifecycle.NewController(r.registry, r.loadFilters, r.controls)

	if cfg.Weaving.Enabled {
		r.hook = weave.NewHook(weave.NewWeaver(), r.weaveFilters)
	}

	// Modules see their own registrations first, then whatever got into
	// the flat process registry.
	thunk.Bind(r.registry, driver.Chain(r.registry, drivermgr.AsProvider()))

	if cfg.Status.Enabled {
		r.status = ops.NewStatusServer(cfg.Status.Address, r.registry, r.index)
		r.status.Start()
	}

	r.log.Info("Drivergate runtime started", map[string]interface{}{
		"weaving": cfg.Weaving.Enabled,
		"status":  cfg.Status.Enabled,
	})
	return r, nil
}

// Stop deactivates the runtime in reverse start order. The thunk falls back
// to the plain drivermgr registry and all published capabilities are
// retracted.
func (r *Runtime) Stop(ctx context.Context) error {
	if r.stopped {
		return errors.New("boot: runtime already stopped")
	}
	r.stopped = true

	var err error
	if r.status != nil {
		err = r.status.Shutdown(ctx)
	}

	thunk.Release()
	r.registry.Release()

	r.log.Info("Drivergate runtime stopped", nil)
	return err
}

// Registry returns the module-aware registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Controller returns the lifecycle controller for the module runtime to
// feed with state change events.
func (r *Runtime) Controller() *lifecycle.Controller { return r.controller }

// Capabilities returns the capability index the registry publishes into.
func (r *Runtime) Capabilities() *ops.CapabilityIndex { return r.index }

// WeaveFilters returns the chain weaving decisions go through.
func (r *Runtime) WeaveFilters() *tweak.WeaveFilterChain { return r.weaveFilters }

// LoadFilters returns the chain driver load decisions go through.
func (r *Runtime) LoadFilters() *tweak.LoadFilterChain { return r.loadFilters }

// Controls returns the chain adjusting newly observed modules.
func (r *Runtime) Controls() *tweak.ControlChain { return r.controls }

// Weave runs the module's source file through the weaver. With weaving
// disabled the source passes through untouched.
func (r *Runtime) Weave(moduleID int64, filename string, src []byte) []byte {
	if r.hook == nil {
		return src
	}
	return r.hook.Apply(moduleID, filename, src)
}
