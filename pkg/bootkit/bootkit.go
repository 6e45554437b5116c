package bootkit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo/mutable"

	"speechgate.dev/pkg/utils"
)

const (
	DefaultStartTimeout = time.Second * 15
	DefaultStopTimeout  = time.Second * 60
)

// Runnable wires one part of the process and registers its hooks on lifeCycle.
type Runnable func(ctx context.Context, lifeCycle LifeCycle) error

type BootKit struct {
	options     *bootkitOptions
	parallelRun []Runnable
	lifeCycle   *lifeCycle

	selfCtx    context.Context
	selfCancel context.CancelFunc

	mutex sync.Mutex
}

func New(options ...Option) *BootKit {
	applyOptions := &bootkitApplyOptions{
		bootkit: &bootkitOptions{
			startTimeout: DefaultStartTimeout,
			stopTimeout:  DefaultStopTimeout,
		},
	}

	for _, opt := range options {
		opt.apply(applyOptions)
	}

	selfCtx, selfCancel := context.WithCancel(context.Background())

	return &BootKit{
		options:     applyOptions.bootkit,
		parallelRun: make([]Runnable, 0),
		lifeCycle:   newLifeCycle(),
		selfCtx:     selfCtx,
		selfCancel:  selfCancel,
	}
}

func (b *BootKit) Add(invokeFn Runnable) *BootKit {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.parallelRun = append(b.parallelRun, invokeFn)

	return b
}

func waitDoneOrContextDone(ctx context.Context, wg *sync.WaitGroup, errChan chan error) error {
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func callRunnable(ctx context.Context, runnable []Runnable, lifecycle LifeCycle) error {
	wg := sync.WaitGroup{}
	errChan := make(chan error, len(runnable))

	for _, r := range runnable {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := r(ctx, lifecycle)
			if err != nil {
				errChan <- err
			}
		}()
	}

	return waitDoneOrContextDone(ctx, &wg, errChan)
}

func callStartHooks(ctx context.Context, startWg *sync.WaitGroup, errChan chan error, hooks []lifeCycler) {
	for _, hook := range hooks {
		startWg.Add(1)

		go func() {
			defer startWg.Done()

			err := hook.Start(ctx)
			if err != nil {
				errChan <- err
			}
		}()
	}
}

func callStopHooks(ctx context.Context, hooks []lifeCycler) error {
	wg := sync.WaitGroup{}
	errChan := make(chan error, len(hooks))

	// Stop in the reverse order of registration
	reversed := utils.Clone(hooks)
	mutable.Reverse(reversed)

	for _, hook := range reversed {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := hook.Stop(ctx)
			if err != nil {
				errChan <- err
			}
		}()
	}

	return waitDoneOrContextDone(ctx, &wg, errChan)
}

func waitGroupToChan(wg *sync.WaitGroup) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

func (b *BootKit) watchSignals() {
	sigs := make(chan os.Signal, 2) //nolint:mnd
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		cancelled := false

		for sig := range sigs {
			// Double signal will force exit
			if cancelled {
				fmt.Fprintln(os.Stderr, "received signal twice, force terminated")
				os.Exit(1)
			}

			slog.Info("received signal, shutting down", "signal", sig.String())
			b.selfCancel()

			cancelled = true
		}
	}()
}

// Start runs every runnable, then every start hook, and blocks until the hooks
// return, one of them fails, or the process is signalled. Stop hooks always run
// before Start returns.
func (b *BootKit) Start() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ctx, cancel := context.WithTimeout(b.selfCtx, b.options.startTimeout)
	defer cancel()

	err := callRunnable(ctx, b.parallelRun, b.lifeCycle)
	if err != nil {
		slog.Error("failed to run", "error", err)
		b.mayStop()

		return
	}

	hooks := b.lifeCycle.GetHooks()
	startWg := &sync.WaitGroup{}
	errChan := make(chan error, len(hooks))

	callStartHooks(b.selfCtx, startWg, errChan, hooks)
	b.watchSignals()

	defer b.mayStop()

	select {
	case err := <-errChan:
		slog.Error("failed to start", "error", err)
	case <-waitGroupToChan(startWg):
	case <-b.selfCtx.Done():
	}
}

func (b *BootKit) stop() error {
	hooks := b.lifeCycle.GetHooks()
	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.options.stopTimeout)
	defer cancel()

	return callStopHooks(ctx, hooks)
}

func (b *BootKit) mayStop() {
	err := b.stop()
	if err != nil {
		slog.Error("failed to stop", "error", err)
	}
}
