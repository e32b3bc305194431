// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1

package boot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivergate/config"
	"drivergate/driver"
	"drivergate/drivermgr"
	"drivergate/thunk"
)

type bootDriver struct {
	url string
}

func (d *bootDriver) AcceptsURL(url string) bool { return url == d.url }

func (d *bootDriver) Connect(ctx context.Context, url string, props driver.Properties) (driver.Conn, error) {
	return nil, nil
}

func (d *bootDriver) MajorVersion() int { return 1 }
func (d *bootDriver) MinorVersion() int { return 0 }

func testConfig() *config.Runtime {
	cfg := config.Default()
	cfg.Status.Enabled = false
	return cfg
}

func TestStartBindsThunkToRegistry(t *testing.T) {
	r, err := Start(testConfig())
	require.NoError(t, err)
	defer r.Stop(context.Background())

	d := &bootDriver{url: "db://boot"}
	thunk.Register(d, 42)

	drivers := r.Registry().Drivers()
	require.Len(t, drivers, 1)
	assert.Equal(t, driver.Driver(d), drivers[0])
	assert.Equal(t, 1, r.Capabilities().Len())

	thunk.Deregister(d, 42)
	assert.Empty(t, r.Registry().Drivers())
}

func TestThunkSeesDrivermgrFallback(t *testing.T) {
	r, err := Start(testConfig())
	require.NoError(t, err)
	defer r.Stop(context.Background())

	d := &bootDriver{url: "db://flat"}
	drivermgr.Register(d)
	defer drivermgr.Deregister(d)

	found, err := thunk.DriverFor("db://flat", 42)
	require.NoError(t, err)
	assert.Equal(t, driver.Driver(d), found)
}

func TestStopRestoresFallback(t *testing.T) {
	r, err := Start(testConfig())
	require.NoError(t, err)
	require.NoError(t, r.Stop(context.Background()))

	// The runtime is gone: thunk registrations land in drivermgr now.
	d := &bootDriver{url: "db://after"}
	thunk.Register(d, 42)
	defer drivermgr.Deregister(d)

	assert.Empty(t, r.Registry().Drivers())
	assert.Contains(t, drivermgr.Drivers(), driver.Driver(d))

	assert.Error(t, r.Stop(context.Background()))
}

func TestWeaveDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Weaving.Enabled = false
	r, err := Start(cfg)
	require.NoError(t, err)
	defer r.Stop(context.Background())

	src := "package legacy\n\nimport \"drivergate/drivermgr\"\n\nfunc f(d Driver) { drivermgr.Register(d) }\n"
	assert.Equal(t, src, string(r.Weave(42, "mod.go", []byte(src))))
}

func TestWeaveEnabled(t *testing.T) {
	r, err := Start(testConfig())
	require.NoError(t, err)
	defer r.Stop(context.Background())

	src := "package legacy\n\nimport \"drivergate/drivermgr\"\n\nfunc f(d Driver) { drivermgr.Register(d) }\n"
	assert.Contains(t, string(r.Weave(42, "mod.go", []byte(src))), "thunk.Register(d, 42)")
}

func TestStartRejectsBadCondition(t *testing.T) {
	cfg := testConfig()
	cfg.Publication.DefaultCondition = "sometimes"
	_, err := Start(cfg)
	assert.Error(t, err)
}
