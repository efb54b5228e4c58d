package actor

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
)

// Registry is the name directory of one [ActorSystem]. Futures and actors
// share it, so every addressable process has exactly one entry.
type Registry struct {
	address string
	seq     atomic.Uint64

	mu    sync.RWMutex
	procs map[string]Process
}

func newRegistry(address string) *Registry {
	return &Registry{
		address: address,
		procs:   make(map[string]Process),
	}
}

// NextID returns a fresh name: prefix, "$" and a base-36 sequence number.
func (r *Registry) NextID(prefix string) string {
	return prefix + "$" + strconv.FormatUint(r.seq.Add(1), 36)
}

// Add inserts p under id unless the name is taken. The check and the insert
// happen under one lock.
func (r *Registry) Add(id string, p Process) (PID, bool) {
	pid := NewPID(r.address, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.procs[id]; exists {
		return pid, false
	}
	r.procs[id] = p
	return pid, true
}

// Get returns the process registered under id.
func (r *Registry) Get(id string) (Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[id]
	return p, ok
}

// Remove deletes the entry for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, id)
}

// removeProcess deletes the entry for id only if it still belongs to p, so a
// late cleanup never evicts a successor that reused the name.
func (r *Registry) removeProcess(id string, p Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.procs[id]; ok && cur == p {
		delete(r.procs, id)
	}
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.procs)
}

// IDs returns the sorted names of all registered processes.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.procs))
	for id := range r.procs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (r *Registry) processes() []Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Process, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p)
	}
	return out
}
