package actor

// Executor runs long-lived actor loops. The default starts one goroutine
// per task; hosts that pool or trace goroutines can supply their own.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to [Executor].
type ExecutorFunc func(task func())

func (f ExecutorFunc) Execute(task func()) { f(task) }

type goExecutor struct{}

func (goExecutor) Execute(task func()) { go task() }
