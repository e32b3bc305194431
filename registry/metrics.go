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

import "github.com/prometheus/client_golang/prometheus"

var (
	registrationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivergate_registry_events_total",
			Help: "Registry registration events by type",
		},
		[]string{"event"},
	)

	publishedCapabilities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivergate_registry_published_capabilities",
			Help: "Currently published driver capabilities",
		},
	)
)

func init() {
	prometheus.MustRegister(registrationEvents)
	prometheus.MustRegister(publishedCapabilities)
}
