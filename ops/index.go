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

// Package ops provides the operational surface of the drivergate service:
// the capability index that published registrations land in, and the HTTP
// endpoint exposing status and metrics.
package ops

import (
	"sync"

	"drivergate/registry"
)

// CapabilityIndex collects the published driver capabilities. It implements
// registry.Publisher; retracting a publication removes the capability.
type CapabilityIndex struct {
	mu           sync.RWMutex
	capabilities map[string]registry.Capability
}

// NewCapabilityIndex creates an empty index.
func NewCapabilityIndex() *CapabilityIndex {
	return &CapabilityIndex{capabilities: make(map[string]registry.Capability)}
}

// Publish implements registry.Publisher.
func (x *CapabilityIndex) Publish(c registry.Capability) registry.Publication {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.capabilities[c.ID] = c
	return &indexPublication{index: x, id: c.ID}
}

// Capabilities returns the currently published capabilities.
func (x *CapabilityIndex) Capabilities() []registry.Capability {
	x.mu.RLock()
	defer x.mu.RUnlock()

	result := make([]registry.Capability, 0, len(x.capabilities))
	for _, c := range x.capabilities {
		result = append(result, c)
	}
	return result
}

// Len returns the number of published capabilities.
func (x *CapabilityIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.capabilities)
}

type indexPublication struct {
	index *CapabilityIndex
	id    string
	once  sync.Once
}

func (p *indexPublication) Retract() {
	p.once.Do(func() {
		p.index.mu.Lock()
		defer p.index.mu.Unlock()
		delete(p.index.capabilities, p.id)
	})
}
