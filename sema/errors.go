package sema

import (
	"fmt"

	"github.com/CindyWang1997/makergame/internal/diag"
)

func errReserved(name string) error {
	return fmt.Errorf("%q is reserved and cannot be declared, assigned, or introduced into any scope", name)
}

func errDuplicateValue(name string) error {
	return fmt.Errorf("duplicate declaration of %q in this scope", name)
}

func errDuplicateFunc(name string) error {
	return fmt.Errorf("duplicate function %q in this scope", name)
}

// wrap attaches file/line context to an error produced deeper in the
// analyzer (scope building, type checking, inheritance resolution).
func (a *Analyzer) wrap(line int, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*diag.Error); ok {
		return err
	}
	return diag.Errorf(a.file, line, "%s", err)
}
