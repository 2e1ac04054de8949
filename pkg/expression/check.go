package expression

import (
	"github.com/expr-lang/expr"
	"github.com/pkg/errors"
)

// CheckAllMatch reports whether every expression holds for the file.
// The texts of the expressions that did not hold are returned as reasons.
func CheckAllMatch(f *File, expressions []CompiledExpression) (bool, []string, error) {
	var failedExpressions []string

	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, f)
		if err != nil {
			return false, nil, errors.Wrapf(err, "check expression %q", expression.Text)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, nil, errors.Errorf("expression %q returned %T, not bool", expression.Text, result)
		}

		if !expResult {
			failedExpressions = append(failedExpressions, expression.Text)
		}
	}

	if len(failedExpressions) > 0 {
		return false, failedExpressions, nil
	}

	return true, nil, nil
}
