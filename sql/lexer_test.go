package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexerBasic(t *testing.T) {
	assert := assert.New(t)

	tokens := func(code string) []int {
		l := newLexer(code)
		out := []int{}
		for {
			tk := l.Next()
			out = append(out, tk)
			if tk == TkEof || tk == TkError {
				break
			}
		}
		return out
	}

	assert.Equal(
		[]int{TkSelect, TkMul, TkFrom, TkId, TkEof},
		tokens("select * from orders"),
	)

	assert.Equal(
		[]int{TkSelect, TkId, TkComma, TkId, TkDot, TkId, TkFrom, TkId, TkEof},
		tokens("select a, t.b from t"),
	)

	// keywords are case insensitive
	assert.Equal(
		[]int{TkSelect, TkMul, TkFrom, TkId, TkWhere, TkId, TkEq, TkInt, TkEof},
		tokens("SELECT * FROM t WHERE a = 1"),
	)

	// compound keywords
	assert.Equal(
		[]int{TkGroupBy, TkOrderBy, TkEof},
		tokens("group by order   by"),
	)
	assert.Equal(
		[]int{TkGroupBy, TkEof},
		tokens("group \n by"),
	)

	// group/order without by is just an identifier
	assert.Equal(
		[]int{TkId, TkEof},
		tokens("group"),
	)
}

func TestLexerOperator(t *testing.T) {
	assert := assert.New(t)

	one := func(code string, tk int) {
		l := newLexer(code)
		assert.Equal(tk, l.Next(), "code(%s)", code)
	}

	one("=", TkEq)
	one("==", TkEq)
	one("<>", TkNe)
	one("!=", TkNe)
	one("<", TkLt)
	one("<=", TkLe)
	one(">", TkGt)
	one(">=", TkGe)
	one("and", TkAnd)
	one("&&", TkAnd)
	one("or", TkOr)
	one("||", TkOr)
	one("not", TkNot)
	one("!", TkNot)
	one("like", TkLike)
	one("between", TkBetween)
	one("in", TkIn)
	one("join", TkJoin)
	one("on", TkOn)
	one("distinct", TkDistinct)
}

func TestLexerLiteral(t *testing.T) {
	assert := assert.New(t)

	{
		l := newLexer("123")
		assert.Equal(TkInt, l.Next())
		assert.Equal(int64(123), l.Lexeme.Int)
	}
	{
		l := newLexer("1.5")
		assert.Equal(TkReal, l.Next())
		assert.Equal(1.5, l.Lexeme.Real)
	}
	{
		l := newLexer("'hello world'")
		assert.Equal(TkStr, l.Next())
		assert.Equal("hello world", l.Lexeme.Text)
	}
	{
		l := newLexer(`"double"`)
		assert.Equal(TkStr, l.Next())
		assert.Equal("double", l.Lexeme.Text)
	}
	{
		// identifiers are lowered
		l := newLexer("OrderKey")
		assert.Equal(TkId, l.Next())
		assert.Equal("orderkey", l.Lexeme.Text)
	}
	{
		l := newLexer("null")
		assert.Equal(TkNull, l.Next())
	}
	{
		l := newLexer("true false")
		assert.Equal(TkTrue, l.Next())
		assert.Equal(TkFalse, l.Next())
	}
}

func TestLexerComment(t *testing.T) {
	assert := assert.New(t)

	{
		l := newLexer("// comment\nselect")
		assert.Equal(TkSelect, l.Next())
	}
	{
		l := newLexer("# comment\nselect")
		assert.Equal(TkSelect, l.Next())
	}
	{
		l := newLexer("/* block\ncomment */ select")
		assert.Equal(TkSelect, l.Next())
	}
	{
		l := newLexer("/* not closed")
		assert.Equal(TkError, l.Next())
	}
}

func TestLexerError(t *testing.T) {
	assert := assert.New(t)

	{
		l := newLexer("'not closed")
		assert.Equal(TkError, l.Next())
	}
	{
		l := newLexer("&")
		assert.Equal(TkError, l.Next())
	}
	{
		l := newLexer("|")
		assert.Equal(TkError, l.Next())
	}
}
