package bootkit

import "time"

type bootkitOptions struct {
	startTimeout time.Duration
	stopTimeout  time.Duration
}

type bootkitApplyOptions struct {
	bootkit *bootkitOptions
}

type Option interface {
	apply(options *bootkitApplyOptions)
}

type optionFunc func(options *bootkitApplyOptions)

func (f optionFunc) apply(options *bootkitApplyOptions) {
	f(options)
}

// StartTimeout bounds the runnables registered with Add. Start hooks are
// expected to block for as long as the process serves.
func StartTimeout(timeout time.Duration) Option {
	return optionFunc(func(options *bootkitApplyOptions) {
		if timeout > 0 {
			options.bootkit.startTimeout = timeout
		}
	})
}

func StopTimeout(timeout time.Duration) Option {
	return optionFunc(func(options *bootkitApplyOptions) {
		if timeout > 0 {
			options.bootkit.stopTimeout = timeout
		}
	})
}
