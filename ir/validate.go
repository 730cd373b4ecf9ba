package ir

import "fmt"

// Validate asserts the module's CFGs are structurally sound: every block
// terminates exactly once, and every jump target names a block that
// actually exists in the same function. The CLI's `-c` mode runs this
// before printing; `-l` skips it.
func (m *Module) Validate() error {
	for _, fn := range m.Functions {
		if err := fn.Validate(); err != nil {
			return fmt.Errorf("function %s: %w", fn.Label, err)
		}
	}
	return nil
}

func (fn *Function) Validate() error {
	if fn.Extern {
		if len(fn.Blocks) != 0 {
			return fmt.Errorf("extern function must not have a body")
		}
		return nil
	}
	if len(fn.Blocks) == 0 {
		return fmt.Errorf("function has no blocks")
	}
	labels := make(map[string]bool, len(fn.Blocks))
	for _, blk := range fn.Blocks {
		if labels[blk.Label] {
			return fmt.Errorf("duplicate block label %q", blk.Label)
		}
		labels[blk.Label] = true
	}
	for _, blk := range fn.Blocks {
		if blk.Term == nil {
			return fmt.Errorf("block %q falls through without a terminator", blk.Label)
		}
		for _, target := range terminatorTargets(blk.Term) {
			if !labels[target] {
				return fmt.Errorf("block %q jumps to undeclared block %q", blk.Label, target)
			}
		}
	}
	return nil
}

func terminatorTargets(t Terminator) []string {
	switch x := t.(type) {
	case Jump:
		return []string{x.Target}
	case CondJump:
		return []string{x.Then, x.Else}
	default:
		return nil
	}
}
