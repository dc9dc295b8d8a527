package expr

import "errors"

// ErrSandbox covers grammar-level violations: statement syntax, denied
// constructs (lambda, comprehensions, await, yield, walrus), unknown
// tokens, and any use of the double-underscore sequence. A failure of
// this class means the input was never a legal report expression.
var ErrSandbox = errors.New("unsafe expression")

// ErrNameDenied covers identifier-level violations: references to names
// on the deny list, and references to names that simply do not resolve.
// Distinct from ErrSandbox so callers can tell "illegal syntax" apart
// from "legal syntax naming a forbidden capability".
var ErrNameDenied = errors.New("name is not defined")

// ErrDivisionByZero is an arithmetic fault. It is the caller's decision
// whether to treat it as fatal; computed fields map it to 0.
var ErrDivisionByZero = errors.New("division by zero")
