package txorm

import (
	"errors"
	"testing"
)

func Test_Err_Error(t *testing.T) {
	eq(t, ``, Err{}.Error())
	eq(t, `[txorm] NoTable`, Err{Code: ErrCodeNoTable}.Error())
	eq(t,
		`[txorm] NoTable while x: no table`,
		ErrNoTable.while(`x`).Error(),
	)
	eq(t,
		`[txorm] Compile while compiling: unsupported 10`,
		errCompile(`compiling`, `unsupported %v`, 10).Error(),
	)
}

func Test_Err_Is(t *testing.T) {
	cause := errors.New(`cause`)
	err := ErrValue.while(`x`).because(cause)

	eq(t, true, errors.Is(err, ErrValue))
	eq(t, true, errors.Is(err, cause))
	eq(t, false, errors.Is(err, ErrType))

	eq(t, true, errors.Is(ErrNoTable, ErrCompile))
	eq(t, true, errors.Is(ErrDepth, ErrCompile))
	eq(t, false, errors.Is(ErrCompile, ErrNoTable))
	eq(t, false, errors.Is(ErrExpression, ErrCompile))

	var target Err
	eq(t, true, errors.As(error(err), &target))
	eq(t, ErrCodeValue, target.Code)
}
