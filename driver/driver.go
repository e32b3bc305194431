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

package driver

import (
	"context"
	"fmt"
)

// Properties carries connection properties passed to a driver. The keys
// "user" and "password" are conventional.
type Properties map[string]string

// WithCredentials returns a copy of the properties with user and password
// set. The receiver is not modified.
func (p Properties) WithCredentials(user, password string) Properties {
	result := make(Properties, len(p)+2)
	for k, v := range p {
		result[k] = v
	}
	result["user"] = user
	result["password"] = password
	return result
}

// User returns the conventional user property.
func (p Properties) User() string { return p["user"] }

// Password returns the conventional password property.
func (p Properties) Password() string { return p["password"] }

// Conn is an established connection. Everything beyond releasing it is the
// business of the driver that made it.
type Conn interface {
	Close() error
}

// Driver is a database driver implementation.
//
// A driver declines a URL it does not understand by returning (nil, nil)
// from Connect; a non-nil error means the driver claimed the URL and failed.
type Driver interface {
	// AcceptsURL tells whether the driver understands the URL scheme. It is
	// a syntactic check only and implies nothing about reachability.
	AcceptsURL(url string) bool

	// Connect attempts to open a connection to the URL.
	Connect(ctx context.Context, url string, props Properties) (Conn, error)

	// MajorVersion returns the driver's major version number.
	MajorVersion() int

	// MinorVersion returns the driver's minor version number.
	MinorVersion() int
}

// Provider supplies drivers in preference order.
type Provider interface {
	// Drivers returns the available drivers, most preferred first. The
	// returned slice must not be modified.
	Drivers() []Driver
}

// Ref identifies a driver instance for use as a map key. Two Refs are equal
// exactly when they wrap the same instance; drivers are expected to be
// pointer-based, which makes this plain reference identity and keeps two
// instances of the same driver type distinct.
type Ref struct {
	driver Driver
}

// NewRef makes a reference for the driver instance.
func NewRef(d Driver) Ref {
	if d == nil {
		panic("driver: nil driver reference")
	}
	return Ref{driver: d}
}

// Driver returns the referenced driver.
func (r Ref) Driver() Driver { return r.driver }

// ClassName returns the Go type name of the referenced driver.
func (r Ref) ClassName() string { return fmt.Sprintf("%T", r.driver) }

// Version renders the driver version as "major.minor".
func (r Ref) Version() string {
	return fmt.Sprintf("%d.%d", r.driver.MajorVersion(), r.driver.MinorVersion())
}

func (r Ref) String() string {
	return fmt.Sprintf("%s@%s", r.ClassName(), r.Version())
}
