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

// DriverFor returns the first driver of the provider that accepts the URL.
func DriverFor(p Provider, url string) (Driver, error) {
	if url == "" {
		return nil, fmt.Errorf("find driver: %w", ErrNoURL)
	}

	for _, d := range p.Drivers() {
		if d.AcceptsURL(url) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("find driver for %q: %w", url, ErrNoDriver)
}

// Connect asks the provider's drivers to open a connection to the URL, in
// preference order. A driver that declines the URL (nil connection, nil
// error) is skipped; the first connection wins. When drivers claim the URL
// but fail, their failures are collected into a ConnectError. When no driver
// even claims the URL, the error wraps ErrNoDriver.
func Connect(ctx context.Context, p Provider, url string, props Properties) (Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("connect: %w", ErrNoURL)
	}

	var failures []error
	for _, d := range p.Drivers() {
		conn, err := connectOne(ctx, d, url, props)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if conn != nil {
			return conn, nil
		}
	}

	if len(failures) > 0 {
		return nil, &ConnectError{URL: url, Failures: failures}
	}
	return nil, fmt.Errorf("connect %s: %w", url, ErrNoDriver)
}

// connectOne shields the loop from a misbehaving driver: a panic becomes a
// regular failed attempt attributed to the driver.
func connectOne(ctx context.Context, d Driver, url string, props Properties) (conn Conn, err error) {
	defer func() {
		if r := recover(); r != nil {
			conn = nil
			err = &Error{
				Driver: NewRef(d).String(),
				Op:     "connect",
				Err:    fmt.Errorf("panic: %v", r),
			}
		}
	}()

	conn, err = d.Connect(ctx, url, props)
	if err != nil {
		return nil, &Error{Driver: NewRef(d).String(), Op: "connect", Err: err}
	}
	return conn, nil
}
