package txorm

import (
	"errors"
	"fmt"
)

/*
Error codes. You probably shouldn't use this directly; instead, use the `Err`
variables with `errors.Is`.
*/
type ErrCode string

const (
	ErrCodeUnknown             ErrCode = ""
	ErrCodeCompile             ErrCode = "Compile"
	ErrCodeNoTable             ErrCode = "NoTable"
	ErrCodeDepth               ErrCode = "Depth"
	ErrCodeExpression          ErrCode = "Expression"
	ErrCodeNone                ErrCode = "None"
	ErrCodeType                ErrCode = "Type"
	ErrCodeValue               ErrCode = "Value"
	ErrCodeInvalidInput        ErrCode = "InvalidInput"
	ErrCodeMissingArgument     ErrCode = "MissingArgument"
	ErrCodeUnusedArgument      ErrCode = "UnusedArgument"
	ErrCodeUnexpectedParameter ErrCode = "UnexpectedParameter"
	ErrCodeOrdinalOutOfBounds  ErrCode = "OrdinalOutOfBounds"
)

/*
Use blank error variables to detect error types:

	if errors.Is(err, txorm.ErrNoTable) {
		// Handle specific error.
	}

Note that errors returned by this package can't be compared via `==` because
they may include additional details about the circumstances. When compared by
`errors.Is`, they compare `.Cause` and fall back on `.Code`. `ErrNoTable` and
`ErrDepth` are kinds of `ErrCompile`.
*/
var (
	ErrCompile             Err = Err{Code: ErrCodeCompile, Cause: errors.New(`compile error`)}
	ErrNoTable             Err = Err{Code: ErrCodeNoTable, Cause: errors.New(`no table`)}
	ErrDepth               Err = Err{Code: ErrCodeDepth, Cause: errors.New(`expression nested too deeply`)}
	ErrExpression          Err = Err{Code: ErrCodeExpression, Cause: errors.New(`invalid expression`)}
	ErrNone                Err = Err{Code: ErrCodeNone, Cause: errors.New(`none value`)}
	ErrType                Err = Err{Code: ErrCodeType, Cause: errors.New(`type mismatch`)}
	ErrValue               Err = Err{Code: ErrCodeValue, Cause: errors.New(`invalid value`)}
	ErrInvalidInput        Err = Err{Code: ErrCodeInvalidInput, Cause: errors.New(`invalid input`)}
	ErrMissingArgument     Err = Err{Code: ErrCodeMissingArgument, Cause: errors.New(`missing argument`)}
	ErrUnusedArgument      Err = Err{Code: ErrCodeUnusedArgument, Cause: errors.New(`unused argument`)}
	ErrUnexpectedParameter Err = Err{Code: ErrCodeUnexpectedParameter, Cause: errors.New(`unexpected parameter`)}
	ErrOrdinalOutOfBounds  Err = Err{Code: ErrCodeOrdinalOutOfBounds, Cause: errors.New(`ordinal parameter exceeds arguments`)}
)

// Type of errors returned by this package.
type Err struct {
	Code  ErrCode
	While string
	Cause error
}

// Implement `error`.
func (self Err) Error() string {
	if self == (Err{}) {
		return ""
	}
	msg := `[txorm]`
	if self.Code != ErrCodeUnknown {
		msg += fmt.Sprintf(` %s`, self.Code)
	}
	if self.While != "" {
		msg += fmt.Sprintf(` while %v`, self.While)
	}
	if self.Cause != nil {
		msg += `: ` + self.Cause.Error()
	}
	return msg
}

// Implement a hidden interface in "errors".
func (self Err) Is(other error) bool {
	if self.Cause != nil && errors.Is(self.Cause, other) {
		return true
	}
	err, ok := other.(Err)
	if !ok {
		return false
	}
	if err.Code == self.Code {
		return true
	}
	return err.Code == ErrCodeCompile &&
		(self.Code == ErrCodeNoTable || self.Code == ErrCodeDepth)
}

// Implement a hidden interface in "errors".
func (self Err) Unwrap() error {
	return self.Cause
}

func (self Err) while(while string) Err {
	self.While = while
	return self
}

func (self Err) because(cause error) Err {
	self.Cause = cause
	return self
}

func errCompile(while string, format string, args ...any) Err {
	return ErrCompile.while(while).because(fmt.Errorf(format, args...))
}

func errExpression(while string, format string, args ...any) Err {
	return ErrExpression.while(while).because(fmt.Errorf(format, args...))
}

func errType(while string, format string, args ...any) Err {
	return ErrType.while(while).because(fmt.Errorf(format, args...))
}

func errValue(while string, format string, args ...any) Err {
	return ErrValue.while(while).because(fmt.Errorf(format, args...))
}
