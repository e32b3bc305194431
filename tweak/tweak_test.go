// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1

package tweak

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"drivergate/module"
)

type fakeModule struct {
	id    int64
	state module.State
}

func (m *fakeModule) ID() int64           { return m.id }
func (m *fakeModule) State() module.State { return m.state }

func (m *fakeModule) Resource(name string) (io.ReadCloser, error) {
	return nil, module.ErrNoResource
}

func (m *fakeModule) LoadProvider(class string) error { return nil }

func TestConditionTest(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		state     module.State
		want      bool
	}{
		{"never ignores active", Never, module.Active, false},
		{"never ignores resolved", Never, module.Resolved, false},
		{"linkable accepts resolved", WhenLinkable, module.Resolved, true},
		{"linkable accepts stopping", WhenLinkable, module.Stopping, true},
		{"linkable rejects uninstalled", WhenLinkable, module.Uninstalled, false},
		{"active accepts active", WhenActive, module.Active, true},
		{"active rejects resolved", WhenActive, module.Resolved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.condition.Test(tt.state))
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	m := &fakeModule{id: 1}
	o := NewOptions(m, []string{"b.Driver", "a.Driver"})

	assert.Equal(t, module.Module(m), o.Module())
	assert.Equal(t, []string{"a.Driver", "b.Driver"}, o.Declared())
	assert.Equal(t, []string{"a.Driver", "b.Driver"}, o.Loadable())
	assert.Equal(t, WhenActive, o.Condition())
}

func TestOptionsExcludeInclude(t *testing.T) {
	o := NewOptions(&fakeModule{id: 1}, []string{"a.Driver", "b.Driver"})

	o.Exclude("a.Driver")
	o.Exclude("missing.Driver")
	assert.Equal(t, []string{"b.Driver"}, o.Loadable())
	assert.False(t, o.Loads("a.Driver"))

	o.Include("a.Driver")
	assert.True(t, o.Loads("a.Driver"))

	// Undeclared classes never become loadable.
	o.Include("missing.Driver")
	assert.False(t, o.Loads("missing.Driver"))

	// The declared set is untouched by all of the above.
	assert.Equal(t, []string{"a.Driver", "b.Driver"}, o.Declared())
}

func TestOptionsSetCondition(t *testing.T) {
	o := NewOptions(&fakeModule{id: 1}, nil)
	o.SetCondition(WhenLinkable)
	assert.Equal(t, WhenLinkable, o.Condition())
}
