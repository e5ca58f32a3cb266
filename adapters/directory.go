package adapters

import (
	"sync"

	"github.com/indexnet/gateway/gtypes"
)

// StaticDirectory resolves subgraph names to deployment ids from an
// in-memory table that is replaced wholesale through Replace. It starts
// empty; nothing in this module fills it from SYNC_AGENT.
type StaticDirectory struct {
	mu    sync.RWMutex
	names map[string]gtypes.DeploymentId
}

// NewStaticDirectory returns an empty directory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{names: make(map[string]gtypes.DeploymentId)}
}

// Resolve implements queryengine.DeploymentDirectory.
func (d *StaticDirectory) Resolve(name string) (gtypes.DeploymentId, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dep, ok := d.names[name]
	return dep, ok
}

// Replace atomically swaps the directory's entire name table, the shape a
// periodic SYNC_AGENT poll naturally produces.
func (d *StaticDirectory) Replace(names map[string]gtypes.DeploymentId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = names
}
