// Package expression evaluates user supplied predicates over candidate files.
package expression

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// File is the environment an expression sees, e.g. `Size > 1048576 && Name endsWith ".iso"`.
type File struct {
	Path   string
	Name   string
	Dir    string
	Size   int64
	Device uint64
	Inode  uint64
	Links  uint64
}

type CompiledExpression struct {
	Program *vm.Program
	Text    string
}

func Compile(texts []string) ([]CompiledExpression, error) {
	compiled := make([]CompiledExpression, 0, len(texts))

	for _, text := range texts {
		program, err := expr.Compile(text, expr.Env(File{}), expr.AsBool())
		if err != nil {
			return nil, errors.Wrapf(err, "compile expression %q", text)
		}

		compiled = append(compiled, CompiledExpression{
			Program: program,
			Text:    text,
		})
	}

	return compiled, nil
}
