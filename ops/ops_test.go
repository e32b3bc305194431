// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1

package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivergate/driver"
	"drivergate/registry"
)

type opsDriver struct{}

func (opsDriver) AcceptsURL(url string) bool { return false }

func (opsDriver) Connect(ctx context.Context, url string, props driver.Properties) (driver.Conn, error) {
	return nil, nil
}

func (opsDriver) MajorVersion() int { return 3 }
func (opsDriver) MinorVersion() int { return 2 }

func TestCapabilityIndexPublishRetract(t *testing.T) {
	index := NewCapabilityIndex()

	p := index.Publish(registry.Capability{ID: "cap-1", ModuleID: 1, Class: "x.Driver"})
	require.Equal(t, 1, index.Len())

	p.Retract()
	p.Retract()
	assert.Equal(t, 0, index.Len())
}

func TestCapabilityIndexAsPublisher(t *testing.T) {
	index := NewCapabilityIndex()
	reg := registry.New()
	reg.Bind(index)

	reg.Register(1, opsDriver{}, nil)
	require.Equal(t, 1, index.Len())

	capability := index.Capabilities()[0]
	assert.Equal(t, int64(1), capability.ModuleID)
	assert.Equal(t, "3.2", capability.Version)
	assert.NotEmpty(t, capability.ID)

	reg.Suspend(1)
	assert.Equal(t, 0, index.Len())
}

func TestStatusEndpoint(t *testing.T) {
	index := NewCapabilityIndex()
	reg := registry.New()
	reg.Bind(index)
	reg.Register(1, opsDriver{}, nil)

	s := NewStatusServer(":0", reg, index)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report struct {
		Status       string `json:"status"`
		Capabilities int    `json:"capabilities"`
		Drivers      []struct {
			ModuleID  int64  `json:"module_id"`
			Version   string `json:"version"`
			Published bool   `json:"published"`
		} `json:"drivers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, 1, report.Capabilities)
	require.Len(t, report.Drivers, 1)
	assert.True(t, report.Drivers[0].Published)
	assert.Equal(t, "3.2", report.Drivers[0].Version)
}

func TestCapabilitiesEndpoint(t *testing.T) {
	index := NewCapabilityIndex()
	index.Publish(registry.Capability{ID: "cap-1", ModuleID: 9, Class: "x.Driver", Version: "1.0"})

	s := NewStatusServer(":0", registry.New(), index)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/capabilities", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var report []capabilityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report, 1)
	assert.Equal(t, "cap-1", report[0].ID)
	assert.Equal(t, int64(9), report[0].ModuleID)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewStatusServer(":0", registry.New(), NewCapabilityIndex())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "drivergate_registry_published_capabilities")
}
