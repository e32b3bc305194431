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

// chain composes providers into one ordered view.
type chain struct {
	providers []Provider
}

// Chain returns a provider whose drivers are the concatenation of the given
// providers' drivers, keeping provider order and each provider's own order.
// The view is live: it re-reads the providers on every call.
func Chain(providers ...Provider) Provider {
	copied := make([]Provider, len(providers))
	copy(copied, providers)
	return &chain{providers: copied}
}

func (c *chain) Drivers() []Driver {
	var result []Driver
	for _, p := range c.providers {
		result = append(result, p.Drivers()...)
	}
	return result
}

type nilProvider struct{}

func (nilProvider) Drivers() []Driver { return nil }

// Nil returns a provider with no drivers.
func Nil() Provider { return nilProvider{} }
