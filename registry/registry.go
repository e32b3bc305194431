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

// Package registry keeps the module-aware driver registrations.
//
// Unlike the flat drivermgr registry, every registration here is owned by a
// module: the module's lifecycle suspends, resumes and finally cancels its
// drivers as a group. Registered drivers are ranked and served through the
// driver.Provider interface in rank order, and each visible registration is
// published as a discoverable capability while the registry is bound to a
// publisher.
package registry

import (
	"cmp"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"

	"drivergate/driver"
	"drivergate/ordered"
)

var logger = log.New(os.Stdout, "[REGISTRY] ", log.LstdFlags)

// Capability describes a published driver registration.
type Capability struct {
	ID       string // unique publication id
	ModuleID int64
	Class    string
	Version  string
	Driver   driver.Driver
}

// Publication is a handle to a published capability.
type Publication interface {
	// Retract withdraws the capability.
	Retract()
}

// Publisher is the sink that makes capabilities discoverable.
type Publisher interface {
	Publish(c Capability) Publication
}

// record is one owned registration.
type record struct {
	ref          driver.Ref
	moduleID     int64
	onUnregister func()
	rank         int
	seq          uint64
}

// rankedEntry is the immutable ordering key stored in the ranked view. A
// rank change replaces the whole entry so the comparator never observes a
// mutation.
type rankedEntry struct {
	rank int
	seq  uint64
}

func compareRanked(a, b ordered.Item[driver.Ref, rankedEntry]) int {
	if d := cmp.Compare(b.Value().rank, a.Value().rank); d != 0 {
		return d
	}
	return cmp.Compare(a.Value().seq, b.Value().seq)
}

// Registry tracks driver registrations per owning module.
//
// Callbacks supplied by registrants are never invoked while the registry
// lock is held.
type Registry struct {
	mu        sync.Mutex
	records   map[driver.Ref]*record
	published map[driver.Ref]Publication
	suspended map[int64]bool
	publisher Publisher
	seq       uint64
	order     *ordered.Map[driver.Ref, rankedEntry]
}

// New creates an empty registry with no publisher bound.
func New() *Registry {
	return &Registry{
		records:   make(map[driver.Ref]*record),
		published: make(map[driver.Ref]Publication),
		suspended: make(map[int64]bool),
		order:     ordered.NewMap[driver.Ref, rankedEntry](compareRanked),
	}
}

// Register records the driver as owned by the module. Registering an already
// registered driver instance is a no-op that keeps the original owner and
// callback. The registration becomes visible immediately unless the owning
// module is suspended.
func (r *Registry) Register(moduleID int64, d driver.Driver, onUnregister func()) {
	ref := driver.NewRef(d)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[ref]; exists {
		return
	}

	r.seq++
	rec := &record{ref: ref, moduleID: moduleID, onUnregister: onUnregister, seq: r.seq}
	r.records[ref] = rec
	r.order.Add(ref, rankedEntry{rank: rec.rank, seq: rec.seq})
	registrationEvents.WithLabelValues("register").Inc()
	logger.Printf("Registered driver %s for module %d", ref, moduleID)

	if !r.suspended[moduleID] {
		r.publish(rec)
	}
}

// Unregister removes the driver if it is owned by the module; a mismatched
// or unknown registration is ignored. The registration's callback runs after
// the registry state is updated.
func (r *Registry) Unregister(moduleID int64, d driver.Driver) {
	ref := driver.NewRef(d)

	r.mu.Lock()
	rec, exists := r.records[ref]
	if !exists || rec.moduleID != moduleID {
		r.mu.Unlock()
		return
	}
	r.remove(rec)
	r.mu.Unlock()

	registrationEvents.WithLabelValues("unregister").Inc()
	logger.Printf("Unregistered driver %s of module %d", ref, moduleID)
	if err := invoke(rec); err != nil {
		logger.Printf("Unregistration callback of %s failed: %v", ref, err)
	}
}

// CancelModule removes all registrations of the module and forgets its
// suspension state. Callbacks run after the registry state is updated; their
// failures are collected into a CancelError rather than aborting the
// removal. Cancelling an unknown module is a no-op.
func (r *Registry) CancelModule(moduleID int64) error {
	r.mu.Lock()
	var cancelled []*record
	for _, rec := range r.records {
		if rec.moduleID == moduleID {
			cancelled = append(cancelled, rec)
		}
	}
	for _, rec := range cancelled {
		r.remove(rec)
	}
	delete(r.suspended, moduleID)
	r.mu.Unlock()

	if len(cancelled) == 0 {
		return nil
	}

	registrationEvents.WithLabelValues("cancel").Add(float64(len(cancelled)))
	logger.Printf("Cancelled %d driver(s) of module %d", len(cancelled), moduleID)

	var failures []error
	for _, rec := range cancelled {
		if err := invoke(rec); err != nil {
			failures = append(failures, fmt.Errorf("driver %s: %w", rec.ref, err))
		}
	}
	return newCancelError(moduleID, failures)
}

// Suspend withdraws the published capabilities of the module until Resume.
// The registrations themselves stay in place. Idempotent.
func (r *Registry) Suspend(moduleID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suspended[moduleID] {
		return
	}
	r.suspended[moduleID] = true

	for _, rec := range r.records {
		if rec.moduleID == moduleID {
			r.conceal(rec.ref)
		}
	}
}

// Resume republishes the capabilities of a suspended module. Idempotent.
func (r *Registry) Resume(moduleID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.suspended[moduleID] {
		return
	}
	delete(r.suspended, moduleID)

	for _, rec := range r.records {
		if rec.moduleID == moduleID {
			r.publish(rec)
		}
	}
}

// SetRank changes the ranking of the driver. Unknown drivers are ignored.
func (r *Registry) SetRank(d driver.Driver, rank int) {
	ref := driver.NewRef(d)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[ref]
	if !exists || rec.rank == rank {
		return
	}
	rec.rank = rank
	r.order.Set(ref, rankedEntry{rank: rank, seq: rec.seq})
}

// Bind attaches the publisher and publishes all visible registrations.
// A previously bound publisher is released first.
func (r *Registry) Bind(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.concealAll()
	r.publisher = p
	if p == nil {
		return
	}
	for _, rec := range r.records {
		if !r.suspended[rec.moduleID] {
			r.publish(rec)
		}
	}
}

// Release detaches the publisher, retracting all publications.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.concealAll()
	r.publisher = nil
}

// Drivers returns all registered drivers ordered by rank, highest first,
// ties in registration order. Suspension affects publication only, not this
// view. Implements driver.Provider.
func (r *Registry) Drivers() []driver.Driver {
	items := r.order.Items()
	result := make([]driver.Driver, len(items))
	for i, item := range items {
		result[i] = item.Key().Driver()
	}
	return result
}

// RecordInfo is a point-in-time description of one registration.
type RecordInfo struct {
	ModuleID  int64  `json:"module_id"`
	Class     string `json:"class"`
	Version   string `json:"version"`
	Rank      int    `json:"rank"`
	Published bool   `json:"published"`
}

// Snapshot reports the current registrations in ranked order.
func (r *Registry) Snapshot() []RecordInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []RecordInfo
	for _, item := range r.order.Items() {
		rec := r.records[item.Key()]
		if rec == nil {
			continue
		}
		_, published := r.published[rec.ref]
		result = append(result, RecordInfo{
			ModuleID:  rec.moduleID,
			Class:     rec.ref.ClassName(),
			Version:   rec.ref.Version(),
			Rank:      rec.rank,
			Published: published,
		})
	}
	return result
}

// remove drops the record and its publication; the caller holds the lock.
func (r *Registry) remove(rec *record) {
	delete(r.records, rec.ref)
	r.order.Remove(rec.ref)
	r.conceal(rec.ref)
}

// publish makes the record's capability discoverable; the caller holds the
// lock. Without a bound publisher this is a no-op.
func (r *Registry) publish(rec *record) {
	if r.publisher == nil {
		return
	}
	if _, already := r.published[rec.ref]; already {
		return
	}

	r.published[rec.ref] = r.publisher.Publish(Capability{
		ID:       uuid.New().String(),
		ModuleID: rec.moduleID,
		Class:    rec.ref.ClassName(),
		Version:  rec.ref.Version(),
		Driver:   rec.ref.Driver(),
	})
	publishedCapabilities.Inc()
}

// conceal retracts the publication of the driver if any; the caller holds
// the lock.
func (r *Registry) conceal(ref driver.Ref) {
	p, exists := r.published[ref]
	if !exists {
		return
	}
	delete(r.published, ref)
	p.Retract()
	publishedCapabilities.Dec()
}

func (r *Registry) concealAll() {
	for ref := range r.published {
		r.conceal(ref)
	}
}

// invoke runs the record's callback, converting a panic into an error.
func invoke(rec *record) (err error) {
	if rec.onUnregister == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	rec.onUnregister()
	return nil
}
