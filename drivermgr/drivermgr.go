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

// Package drivermgr is the classic process-global driver registry that
// legacy code is written against: drivers register themselves on load and
// clients ask the process for a connection by URL.
//
// Call sites using this package directly share one flat registry with no
// notion of who registered what. Module-aware deployments redirect these
// calls to the thunk package instead; drivermgr then remains the fallback
// provider of last resort.
package drivermgr

import (
	"context"
	"log"
	"os"
	"sync"

	"drivergate/driver"
)

var logger = log.New(os.Stdout, "[DRIVERMGR] ", log.LstdFlags)

type registration struct {
	ref    driver.Ref
	action func()
}

var (
	mu            sync.RWMutex
	registrations []*registration
	index         = make(map[driver.Ref]*registration)
)

// Register makes the driver available to all clients of this registry.
// Registering an already registered instance is a no-op.
func Register(d driver.Driver) {
	RegisterAction(d, nil)
}

// RegisterAction registers the driver with an action to run when the driver
// is deregistered.
func RegisterAction(d driver.Driver, action func()) {
	ref := driver.NewRef(d)

	mu.Lock()
	defer mu.Unlock()

	if _, exists := index[ref]; exists {
		return
	}

	r := &registration{ref: ref, action: action}
	registrations = append(registrations, r)
	index[ref] = r
	logger.Printf("Registered driver %s", ref)
}

// Deregister removes the driver and runs its deregistration action if one
// was given. Deregistering an unknown driver is a no-op.
func Deregister(d driver.Driver) {
	ref := driver.NewRef(d)

	mu.Lock()
	r, exists := index[ref]
	if exists {
		delete(index, ref)
		for i, candidate := range registrations {
			if candidate == r {
				registrations = append(registrations[:i], registrations[i+1:]...)
				break
			}
		}
	}
	mu.Unlock()

	if !exists {
		return
	}

	logger.Printf("Deregistered driver %s", ref)
	if r.action != nil {
		r.action()
	}
}

// Drivers returns the registered drivers in registration order.
func Drivers() []driver.Driver {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]driver.Driver, len(registrations))
	for i, r := range registrations {
		result[i] = r.ref.Driver()
	}
	return result
}

// DriverFor returns the first registered driver accepting the URL.
func DriverFor(url string) (driver.Driver, error) {
	return driver.DriverFor(AsProvider(), url)
}

// Connect opens a connection to the URL using the first registered driver
// that manages to connect.
func Connect(ctx context.Context, url string, props driver.Properties) (driver.Conn, error) {
	return driver.Connect(ctx, AsProvider(), url, props)
}

// ConnectCreds is Connect with just a user and password as the properties.
func ConnectCreds(ctx context.Context, url, user, password string) (driver.Conn, error) {
	return Connect(ctx, url, driver.Properties(nil).WithCredentials(user, password))
}

type provider struct{}

func (provider) Drivers() []driver.Driver { return Drivers() }

// AsProvider adapts this registry to the driver.Provider interface.
func AsProvider() driver.Provider { return provider{} }

// reset clears all registrations without running actions; tests only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registrations = nil
	index = make(map[driver.Ref]*registration)
}
