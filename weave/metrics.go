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

package weave

import "github.com/prometheus/client_golang/prometheus"

var wovenFiles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drivergate_weaver_files_total",
		Help: "Files processed by the weaver by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(wovenFiles)
}
