package sequence

import (
	"fmt"

	"github.com/d5/tengo/v2"
)

const conditionResult = "__result"

// condition is a compiled wait_for_condition expression. Scripts see
// `completed`, an array of booleans for the steps of the running group,
// and `done(i)`, which reports a single index.
type condition struct {
	src      string
	compiled *tengo.Compiled
}

func compileCondition(src string) (*condition, error) {
	script := tengo.NewScript([]byte(conditionResult + " := (" + src + ")"))
	_ = script.Add("completed", []any{})
	_ = script.Add("done", &tengo.UserFunction{Name: "done", Value: func(...tengo.Object) (tengo.Object, error) {
		return tengo.FalseValue, nil
	}})
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("sequence: condition %q: %w", src, err)
	}
	return &condition{src: src, compiled: compiled}, nil
}

// Eval runs the expression against completion flags.
func (c *condition) Eval(completed []bool) (bool, error) {
	flags := make([]any, len(completed))
	for i, v := range completed {
		flags[i] = v
	}
	if err := c.compiled.Set("completed", flags); err != nil {
		return false, err
	}
	done := &tengo.UserFunction{Name: "done", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		i, ok := tengo.ToInt(args[0])
		if !ok || i < 0 || i >= len(completed) || !completed[i] {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}
	if err := c.compiled.Set("done", done); err != nil {
		return false, err
	}
	if err := c.compiled.Run(); err != nil {
		return false, fmt.Errorf("sequence: condition %q: %w", c.src, err)
	}
	return c.compiled.Get(conditionResult).Bool(), nil
}
