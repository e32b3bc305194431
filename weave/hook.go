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

import (
	"drivergate/shared/logger"
	"drivergate/tweak"
)

// Hook is the fail-safe entry point for the module loading pipeline. It
// consults the weave filter and applies the weaver, falling back to the
// original source whenever weaving is filtered out or fails: a module must
// load even when it cannot be woven.
type Hook struct {
	weaver *Weaver
	filter tweak.WeaveFilter
	log    *logger.Logger
}

// NewHook creates a hook around the weaver. A nil filter accepts all files.
func NewHook(w *Weaver, filter tweak.WeaveFilter) *Hook {
	return &Hook{weaver: w, filter: filter, log: logger.New("weaver")}
}

// Apply returns the source to load for the module's file: the woven source
// when weaving applies and succeeds, the original otherwise.
func (h *Hook) Apply(moduleID int64, filename string, src []byte) []byte {
	if h.filter != nil && !h.filter.Acceptable(moduleID, filename) {
		wovenFiles.WithLabelValues("filtered").Inc()
		return src
	}

	out, modified, err := h.weaver.Transform(filename, src, moduleID)
	if err != nil {
		wovenFiles.WithLabelValues("failed").Inc()
		h.log.Module(moduleID).ErrorWithErr("Weaving failed, loading original source", err, map[string]interface{}{
			"file": filename,
		})
		return src
	}

	if !modified {
		wovenFiles.WithLabelValues("unmodified").Inc()
		return src
	}

	wovenFiles.WithLabelValues("woven").Inc()
	h.log.Module(moduleID).Debug("Woven file", map[string]interface{}{
		"file": filename,
	})
	return out
}
