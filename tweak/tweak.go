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

// Package tweak defines the extension points that let a deployment adjust
// how drivergate treats individual modules: which files get woven, which
// declared drivers get loaded, and under which condition a module's drivers
// become available.
//
// Plug-ins must not panic. The chains disable any plug-in that does, so one
// broken extension can degrade behavior but never break driver support as a
// whole.
package tweak

import (
	"sort"

	"drivergate/module"
)

// WeaveFilter decides whether a file of a module may be woven.
type WeaveFilter interface {
	Acceptable(moduleID int64, class string) bool
}

// LoadFilter decides whether a declared driver of a module may be loaded.
type LoadFilter interface {
	Loadable(m module.Module, class string) bool
}

// Control adjusts the driver handling options of a module before the module
// is taken under control.
type Control interface {
	Adjust(o *Options)
}

// Condition tells when the drivers of a module shall be available.
type Condition int

const (
	// Never makes the drivers never available; the module is effectively
	// excluded from driver support.
	Never Condition = iota

	// WhenLinkable makes the drivers available whenever the module's code
	// may be linked, even before the module starts.
	WhenLinkable

	// WhenActive makes the drivers available only while the module is
	// active. This is the default.
	WhenActive
)

// Test tells whether the condition holds in the given module state.
func (c Condition) Test(s module.State) bool {
	switch c {
	case WhenLinkable:
		return s.Linkable()
	case WhenActive:
		return s == module.Active
	default:
		return false
	}
}

func (c Condition) String() string {
	switch c {
	case Never:
		return "never"
	case WhenLinkable:
		return "linkable"
	case WhenActive:
		return "active"
	default:
		return "unknown"
	}
}

// Options carries the adjustable driver handling parameters of one module.
// The declared driver set is fixed; controls may shrink or re-grow the
// loadable subset and change the availability condition.
type Options struct {
	m         module.Module
	declared  map[string]struct{}
	loadable  map[string]struct{}
	condition Condition
}

// NewOptions creates options for the module with the given declared driver
// classes. All declared drivers start loadable and the condition defaults to
// WhenActive.
func NewOptions(m module.Module, declared []string) *Options {
	o := &Options{
		m:         m,
		declared:  make(map[string]struct{}, len(declared)),
		loadable:  make(map[string]struct{}, len(declared)),
		condition: WhenActive,
	}
	for _, class := range declared {
		o.declared[class] = struct{}{}
		o.loadable[class] = struct{}{}
	}
	return o
}

// Module returns the module the options belong to.
func (o *Options) Module() module.Module { return o.m }

// Declared returns the declared driver classes, sorted.
func (o *Options) Declared() []string { return sorted(o.declared) }

// Loadable returns the currently loadable driver classes, sorted.
func (o *Options) Loadable() []string { return sorted(o.loadable) }

// Loads tells whether the class is currently loadable.
func (o *Options) Loads(class string) bool {
	_, ok := o.loadable[class]
	return ok
}

// Exclude removes the class from the loadable set. Unknown classes are
// ignored.
func (o *Options) Exclude(class string) {
	delete(o.loadable, class)
}

// Include puts a declared class back into the loadable set. Classes not
// declared by the module are ignored.
func (o *Options) Include(class string) {
	if _, declared := o.declared[class]; declared {
		o.loadable[class] = struct{}{}
	}
}

// Condition returns the availability condition.
func (o *Options) Condition() Condition { return o.condition }

// SetCondition changes the availability condition.
func (o *Options) SetCondition(c Condition) { o.condition = c }

func sorted(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for class := range set {
		result = append(result, class)
	}
	sort.Strings(result)
	return result
}
