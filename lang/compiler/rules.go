package compiler

import "github.com/mna/ember/lang/token"

// Precedence orders binding strength from loosest to tightest; parsePrecedence
// consumes infix operators whose rule precedence is at least the requested
// level.
type Precedence uint8

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

// parseFn is a Pratt parsing function: either a prefix parselet (consumes
// the current token having just been advanced past) or an infix parselet
// (consumes the current token with the left operand already compiled).
// canAssign reports whether an assignment target is syntactically legal here.
type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules maps every token type that can appear in an expression to its Pratt
// rule. Token types with no entry default to the zero rule (no prefix, no
// infix, PrecNone), which parsePrecedence treats as a syntax error when a
// prefix form is expected. It is filled in by init because the parselets
// reach back into the table through getRule.
var rules map[token.Type]rule

func init() {
	rules = map[token.Type]rule{
		token.LPAREN:  {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: PrecCall},
		token.DOT:     {infix: (*Compiler).dot, precedence: PrecCall},
		token.MINUS:   {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.PLUS:    {infix: (*Compiler).binary, precedence: PrecTerm},
		token.SLASH:   {infix: (*Compiler).binary, precedence: PrecFactor},
		token.STAR:    {infix: (*Compiler).binary, precedence: PrecFactor},
		token.BANG:    {prefix: (*Compiler).unary},
		token.BANG_EQ: {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EQ_EQ:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.GT:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GT_EQ:   {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LT:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LT_EQ:   {infix: (*Compiler).binary, precedence: PrecComparison},
		token.IDENT:   {prefix: (*Compiler).variable},
		token.STRING:  {prefix: (*Compiler).string},
		token.NUMBER:  {prefix: (*Compiler).number},
		token.AND:     {infix: (*Compiler).and, precedence: PrecAnd},
		token.OR:      {infix: (*Compiler).or, precedence: PrecOr},
		token.FALSE:   {prefix: (*Compiler).literal},
		token.NIL:     {prefix: (*Compiler).literal},
		token.TRUE:    {prefix: (*Compiler).literal},
		token.SUPER:   {prefix: (*Compiler).super},
		token.THIS:    {prefix: (*Compiler).this},
	}
}

func getRule(t token.Type) rule { return rules[t] }
