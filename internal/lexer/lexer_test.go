package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src string) []Token {
	t.Helper()
	l := New(string(Normalize([]byte(src))), "test.chic")
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks
}

func TestLexer_Keywords(t *testing.T) {
	toks := collect(t, "public struct Widget { }")
	require.Len(t, toks, 6)
	assert.Equal(t, PUBLIC, toks[0].Type)
	assert.Equal(t, STRUCT, toks[1].Type)
	assert.Equal(t, IDENT, toks[2].Type)
	assert.Equal(t, "Widget", toks[2].Literal)
	assert.Equal(t, LBRACE, toks[3].Type)
	assert.Equal(t, RBRACE, toks[4].Type)
	assert.Equal(t, EOF, toks[5].Type)
}

func TestLexer_DocCommentVsPlainComment(t *testing.T) {
	toks := collect(t, "/// hello\n// world\nlet x = 1;")
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, DOC_COMMENT, toks[0].Type)
	assert.Equal(t, "hello", toks[0].Literal)
	assert.Equal(t, COMMENT, toks[1].Type)
}

func TestLexer_Operators(t *testing.T) {
	toks := collect(t, "a?.b ?? c == d != e <= f >= g -> h => i :: j")
	var types []TokenType
	for _, tok := range toks {
		if tok.Type != EOF {
			types = append(types, tok.Type)
		}
	}
	assert.Contains(t, types, QUESTIONDOT)
	assert.Contains(t, types, QUESTIONQUESTION)
	assert.Contains(t, types, EQ)
	assert.Contains(t, types, NEQ)
	assert.Contains(t, types, LTE)
	assert.Contains(t, types, GTE)
	assert.Contains(t, types, ARROW)
	assert.Contains(t, types, FARROW)
	assert.Contains(t, types, COLONCOLON)
}

func TestLexer_NumericLiteralSuffix(t *testing.T) {
	toks := collect(t, "1i32 2u64 3.0f32 4m")
	require.Len(t, toks, 5)
	assert.Equal(t, "1i32", toks[0].Literal)
	assert.Equal(t, INT, toks[0].Type)
	assert.Equal(t, "3.0f32", toks[2].Literal)
	assert.Equal(t, FLOAT, toks[2].Type)
}

func TestLexer_StringEscape(t *testing.T) {
	toks := collect(t, `"a\"b"`)
	require.Len(t, toks, 2)
	assert.Equal(t, STRING, toks[0].Type)
	assert.Equal(t, `a\"b`, toks[0].Literal)
}
