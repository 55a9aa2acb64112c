package assessment

import "sync"

type workflowKey struct {
	sessionID string
	childID   string
}

// Registry keeps one Workflow per (session, child) pair.
type Registry struct {
	mu      sync.Mutex
	backend Backend
	flows   map[workflowKey]*Workflow
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		flows:   make(map[workflowKey]*Workflow),
	}
}

// Get returns the workflow of the child page opened by the session, creating it if needed.
func (r *Registry) Get(sessionID, childID string) *Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := workflowKey{sessionID: sessionID, childID: childID}
	w, ok := r.flows[key]
	if !ok {
		w = NewWorkflow(childID, r.backend)
		r.flows[key] = w
	}
	return w
}

// Peek returns the workflow if it exists, without creating it.
func (r *Registry) Peek(sessionID, childID string) (*Workflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.flows[workflowKey{sessionID: sessionID, childID: childID}]
	return w, ok
}

// Find returns the workflow if it exists. Otherwise it returns a fresh idle workflow that is not
// kept, so reads and no-op transitions never allocate per-session state.
func (r *Registry) Find(sessionID, childID string) *Workflow {
	if w, ok := r.Peek(sessionID, childID); ok {
		return w
	}
	return NewWorkflow(childID, r.backend)
}

// Drop resets and forgets every workflow of the session.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	dropped := make([]*Workflow, 0)
	for key, w := range r.flows {
		if key.sessionID == sessionID {
			dropped = append(dropped, w)
			delete(r.flows, key)
		}
	}
	r.mu.Unlock()

	for _, w := range dropped {
		w.Reset()
	}
}

// Len is the number of live workflows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
