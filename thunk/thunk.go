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

// Package thunk is the redirection target for woven legacy call sites.
//
// Every function mirrors a drivermgr function with one extra trailing
// parameter: the identifier of the calling module, injected by the weaver.
// The functions forward to whatever registrar and provider are currently
// bound; before boot and after shutdown a fallback binding forwards to the
// plain drivermgr registry, so woven code keeps working in any case.
//
// The signatures of this package are a compatibility surface: woven code
// refers to them. Do not change them.
package thunk

import (
	"context"
	"sync/atomic"

	"drivergate/driver"
	"drivergate/drivermgr"
)

// Registrar accepts module-owned driver registrations.
type Registrar interface {
	Register(moduleID int64, d driver.Driver, onUnregister func())
	Unregister(moduleID int64, d driver.Driver)
}

type binding struct {
	registrar Registrar
	provider  driver.Provider
}

var bound atomic.Pointer[binding]

func init() {
	bound.Store(fallback())
}

// fallbackRegistrar routes registrations to the flat drivermgr registry,
// dropping the module ownership that drivermgr cannot represent.
type fallbackRegistrar struct{}

func (fallbackRegistrar) Register(moduleID int64, d driver.Driver, onUnregister func()) {
	drivermgr.RegisterAction(d, onUnregister)
}

func (fallbackRegistrar) Unregister(moduleID int64, d driver.Driver) {
	drivermgr.Deregister(d)
}

func fallback() *binding {
	return &binding{registrar: fallbackRegistrar{}, provider: drivermgr.AsProvider()}
}

// Bind installs the registrar and provider serving the thunk functions.
func Bind(r Registrar, p driver.Provider) {
	if r == nil || p == nil {
		panic("thunk: nil binding")
	}
	bound.Store(&binding{registrar: r, provider: p})
}

// Release restores the fallback binding.
func Release() {
	bound.Store(fallback())
}

// Register registers the driver on behalf of the calling module.
func Register(d driver.Driver, caller int64) {
	bound.Load().registrar.Register(caller, d, nil)
}

// RegisterAction registers the driver with a deregistration action on behalf
// of the calling module.
func RegisterAction(d driver.Driver, action func(), caller int64) {
	bound.Load().registrar.Register(caller, d, action)
}

// Deregister removes the calling module's registration of the driver.
func Deregister(d driver.Driver, caller int64) {
	bound.Load().registrar.Unregister(caller, d)
}

// Drivers returns the drivers visible to the calling module.
func Drivers(caller int64) []driver.Driver {
	return bound.Load().provider.Drivers()
}

// DriverFor returns the first visible driver accepting the URL.
func DriverFor(url string, caller int64) (driver.Driver, error) {
	return driver.DriverFor(bound.Load().provider, url)
}

// Connect opens a connection to the URL through the visible drivers.
func Connect(ctx context.Context, url string, props driver.Properties, caller int64) (driver.Conn, error) {
	return driver.Connect(ctx, bound.Load().provider, url, props)
}

// ConnectCreds is Connect with just a user and password as the properties.
func ConnectCreds(ctx context.Context, url, user, password string, caller int64) (driver.Conn, error) {
	return Connect(ctx, url, driver.Properties(nil).WithCredentials(user, password), caller)
}
