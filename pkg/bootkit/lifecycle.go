package bootkit

import (
	"context"
	"sync"
)

type lifeCycler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifeCycleHook is a pair of callbacks, either may be nil.
type LifeCycleHook struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h LifeCycleHook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}

	return h.OnStart(ctx)
}

func (h LifeCycleHook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}

	return h.OnStop(ctx)
}

type LifeCycle interface {
	Append(hook LifeCycleHook)
}

type lifeCycle struct {
	mutex sync.Mutex
	hooks []lifeCycler
}

func newLifeCycle() *lifeCycle {
	return &lifeCycle{
		hooks: make([]lifeCycler, 0),
	}
}

func (l *lifeCycle) Append(hook LifeCycleHook) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.hooks = append(l.hooks, hook)
}

func (l *lifeCycle) GetHooks() []lifeCycler {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	hooks := make([]lifeCycler, len(l.hooks))
	copy(hooks, l.hooks)

	return hooks
}
