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

package registry

import (
	"errors"
	"fmt"
)

// CancelError aggregates the callback failures of a module cancellation.
// The individual failures remain reachable through errors.Is/errors.As.
type CancelError struct {
	ModuleID int64
	err      error
}

// newCancelError returns nil when there are no failures.
func newCancelError(moduleID int64, failures []error) error {
	if len(failures) == 0 {
		return nil
	}
	return &CancelError{ModuleID: moduleID, err: errors.Join(failures...)}
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("cancel module %d: %v", e.ModuleID, e.err)
}

func (e *CancelError) Unwrap() error {
	return e.err
}
