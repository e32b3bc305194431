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

package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drivergate/registry"
	"drivergate/shared/logger"
)

// StatusServer serves the status and metrics endpoint.
type StatusServer struct {
	registry *registry.Registry
	index    *CapabilityIndex
	server   *http.Server
	log      *logger.Logger
}

// NewStatusServer creates a server on the given address reporting the state
// of the registry and the capability index.
func NewStatusServer(addr string, reg *registry.Registry, index *CapabilityIndex) *StatusServer {
	s := &StatusServer{
		registry: reg,
		index:    index,
		log:      logger.New("ops"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/capabilities", s.handleCapabilities).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *StatusServer) Start() {
	s.log.Info("Status endpoint starting", map[string]interface{}{
		"address": s.server.Addr,
	})

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.ErrorWithErr("Status endpoint failed", err, nil)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler; tests use it directly.
func (s *StatusServer) Handler() http.Handler {
	return s.server.Handler
}

type statusReport struct {
	Status       string                `json:"status"`
	Drivers      []registry.RecordInfo `json:"drivers"`
	Capabilities int                   `json:"capabilities"`
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := statusReport{
		Status:       "ok",
		Drivers:      s.registry.Snapshot(),
		Capabilities: s.index.Len(),
	}
	if report.Drivers == nil {
		report.Drivers = []registry.RecordInfo{}
	}

	writeJSON(w, report)
}

type capabilityReport struct {
	ID       string `json:"id"`
	ModuleID int64  `json:"module_id"`
	Class    string `json:"class"`
	Version  string `json:"version"`
}

func (s *StatusServer) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	capabilities := s.index.Capabilities()
	report := make([]capabilityReport, 0, len(capabilities))
	for _, c := range capabilities {
		report = append(report, capabilityReport{
			ID:       c.ID,
			ModuleID: c.ModuleID,
			Class:    c.Class,
			Version:  c.Version,
		})
	}

	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
