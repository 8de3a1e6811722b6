package pipeline

import "sync"

// projectLocks serializes builds that target the same project, so a retry can
// never race an in-flight build for the output directory. Distinct projects
// proceed concurrently.
type projectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the named project and returns the corresponding unlock.
func (l *projectLocks) acquire(projectID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[projectID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
