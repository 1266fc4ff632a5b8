package execution

import (
	"github.com/YuNanlong/peloton-bwtree/planner"
)

// Executor is a runtime operator mirroring one plan node. The driver wires
// children with AddChild before Init, initializes the tree depth-first, then
// repeatedly calls Execute on the root and collects tiles via GetOutput.
//
// Execute pulls enough input to produce one non-empty output tile and
// returns false once the operator is permanently exhausted or has failed;
// Error distinguishes the two. DML executors never produce a tile.
type Executor interface {
	PlanNode() planner.PlanNode
	AddChild(child Executor)
	Children() []Executor

	Init(ctx *ExecutorContext) error
	Execute() bool
	GetOutput() *LogicalTile
	Error() error
	Close() error
}

// baseExecutor carries the state every operator shares: children, the tile
// produced by the latest Execute, and the failure slot.
type baseExecutor struct {
	children []Executor
	ctx      *ExecutorContext
	output   *LogicalTile
	err      error
}

func (b *baseExecutor) AddChild(child Executor) {
	b.children = append(b.children, child)
}

func (b *baseExecutor) Children() []Executor {
	return b.children
}

// GetOutput transfers ownership of the most recently produced tile.
func (b *baseExecutor) GetOutput() *LogicalTile {
	out := b.output
	b.output = nil
	return out
}

func (b *baseExecutor) Error() error {
	return b.err
}

func (b *baseExecutor) setOutput(tile *LogicalTile) {
	b.output = tile
}

// fail records err and returns false so Execute can tail-call it.
func (b *baseExecutor) fail(err error) bool {
	if b.err == nil {
		b.err = err
	}
	return false
}

func (b *baseExecutor) initChildren(ctx *ExecutorContext) error {
	b.ctx = ctx
	b.output = nil
	b.err = nil
	for _, child := range b.children {
		if err := child.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *baseExecutor) closeChildren() error {
	var firstErr error
	for _, child := range b.children {
		if err := child.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
