package engineffi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Fake is an in-memory Library/Instance pair for exercising the session
// manager without a real Engine shared object. Every call is recorded so
// tests can assert on ordering (e.g. append_task called in index order).
type Fake struct {
	mu sync.Mutex

	Loaded         bool
	LoadedPath     string
	ResourceDir    string
	FailLoad       bool
	FailResource   bool
	FailConnect    bool
	FailAppendTask bool

	AppendedTasks []string
	Stopped       int32
	Started       bool
	running       atomic.Bool
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailLoad {
		return fmt.Errorf("fake: load failed")
	}
	f.Loaded = true
	f.LoadedPath = path
	return nil
}

// Stop simulates the Engine finishing its queue on its own: Running
// reports false afterwards. It does not count towards Stopped, which only
// tracks stop requests issued through an Instance.
func (f *Fake) Stop() {
	f.running.Store(false)
}

func (f *Fake) Unload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loaded = false
	return nil
}

func (f *Fake) LoadResource(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailResource {
		return fmt.Errorf("fake: load resource failed")
	}
	f.ResourceDir = dir
	return nil
}

func (f *Fake) NewInstance(ctx context.Context, cb Callback) (Instance, error) {
	return &fakeInstance{fake: f, cb: cb}, nil
}

type fakeInstance struct {
	fake *Fake
	cb   Callback
}

func (i *fakeInstance) SetConnectionExtras(tag, json string) error { return nil }

func (i *fakeInstance) AsyncConnect(adbPath, address, extrasTag string, block bool) error {
	if i.fake.FailConnect {
		return fmt.Errorf("fake: connect failed")
	}
	return nil
}

func (i *fakeInstance) AppendTask(name, paramsJSON string) (int64, error) {
	i.fake.mu.Lock()
	defer i.fake.mu.Unlock()
	if i.fake.FailAppendTask {
		return 0, fmt.Errorf("fake: append_task(%s) failed", name)
	}
	i.fake.AppendedTasks = append(i.fake.AppendedTasks, name)
	return int64(len(i.fake.AppendedTasks)), nil
}

func (i *fakeInstance) Start() error {
	i.fake.mu.Lock()
	i.fake.Started = true
	i.fake.mu.Unlock()
	i.fake.running.Store(true)
	return nil
}

func (i *fakeInstance) Stop() error {
	atomic.AddInt32(&i.fake.Stopped, 1)
	i.fake.running.Store(false)
	return nil
}

func (i *fakeInstance) Running() bool {
	return i.fake.running.Load()
}

func (i *fakeInstance) Destroy() {}

// Emit delivers a synthetic callback event as if the Engine had invoked it.
func (i *fakeInstance) Emit(code int32, payload string) {
	if i.cb != nil {
		i.cb(code, payload)
	}
}
