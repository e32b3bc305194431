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
	"errors"
	"fmt"
)

var (
	// ErrNoDriver reports that no available driver accepted a URL.
	ErrNoDriver = errors.New("no suitable driver")

	// ErrNoURL reports a missing connection URL.
	ErrNoURL = errors.New("no URL given")
)

// Error describes a failure of a particular driver during an operation.
type Error struct {
	Driver string // driver class name and version
	Op     string // operation that failed
	Err    error  // underlying cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("driver %s: %s: %v", e.Driver, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConnectError reports that every driver claiming a URL failed to connect.
// Failures holds one entry per failed attempt, in attempt order.
type ConnectError struct {
	URL      string
	Failures []error
}

func (e *ConnectError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("connect %s: %v", e.URL, e.Failures[0])
	}
	return fmt.Sprintf("connect %s: all %d drivers failed", e.URL, len(e.Failures))
}

func (e *ConnectError) Unwrap() []error {
	return e.Failures
}
