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

// Package module defines the contract between drivergate and the hosting
// module runtime. The runtime supplies Module handles for the units of code
// it manages; drivergate reacts to their state changes and asks them to
// provide their resources and driver implementations.
package module

import (
	"errors"
	"io"
)

// ErrNoResource reports that a module does not carry a requested resource.
var ErrNoResource = errors.New("module: no such resource")

// State is the lifecycle state of a module as reported by the runtime.
type State int

const (
	NotInstalled State = iota
	Resolved
	Starting
	Active
	Stopping
	Uninstalled
)

// Linkable tells whether code of a module in this state may be linked and
// executed, i.e. whether its classes can be loaded at all.
func (s State) Linkable() bool {
	switch s {
	case Resolved, Starting, Active, Stopping:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case NotInstalled:
		return "not-installed"
	case Resolved:
		return "resolved"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	case Uninstalled:
		return "uninstalled"
	default:
		return "unknown"
	}
}

// Module is a handle to a unit of code managed by the hosting runtime.
//
// Implementations are provided by the runtime integration, not by this
// project. A Module must keep a stable identifier for its whole lifetime.
type Module interface {
	// ID returns the runtime-unique identifier of the module.
	ID() int64

	// State returns the current lifecycle state.
	State() State

	// Resource opens the named resource bundled with the module. It returns
	// an error satisfying errors.Is(err, ErrNoResource) when the module does
	// not carry the resource.
	Resource(name string) (io.ReadCloser, error)

	// LoadProvider loads the named driver provider class of the module,
	// triggering its self-registration side effects.
	LoadProvider(class string) error
}
