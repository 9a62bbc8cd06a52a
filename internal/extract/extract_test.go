package extract

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/treescan/internal/lang"
	"github.com/standardbeagle/treescan/internal/types"
)

func parseFor(t *testing.T, language types.Language, src string) *tree_sitter.Tree {
	t.Helper()
	tree, err := lang.Parse("test."+string(language), language, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)
	return tree
}

func registry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return r
}

func TestRegistryCoversAllLanguages(t *testing.T) {
	r := registry(t)
	for _, language := range types.AllLanguages() {
		ex, err := r.For(language)
		require.NoError(t, err, language)
		assert.Equal(t, language, ex.Language())
	}
}

func TestRegistryUnknownLanguage(t *testing.T) {
	r := registry(t)
	_, err := r.For(types.Language("fortran"))
	assert.Error(t, err)
}

func TestPythonFunction(t *testing.T) {
	src := "def f():\n    pass\n"
	r := registry(t)
	ex, err := r.For(types.LangPython)
	require.NoError(t, err)

	elems := ex.ExtractFunctions(parseFor(t, types.LangPython, src), []byte(src))
	require.Len(t, elems, 1)

	fn, ok := elems[0].(*types.Function)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Name)
	assert.Equal(t, 1, fn.StartLine)
	assert.Equal(t, 2, fn.EndLine)
	assert.Equal(t, "def f():\n    pass", fn.RawText)
	assert.False(t, fn.IsMethod)
}

func TestPythonMethodAndDocstring(t *testing.T) {
	src := `class Greeter:
    """Says hello."""

    async def greet(self, name="world"):
        """Greet someone."""
        return f"hello {name}"
`
	r := registry(t)
	ex, err := r.For(types.LangPython)
	require.NoError(t, err)
	tree := parseFor(t, types.LangPython, src)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 1)
	cls := classes[0].(*types.Class)
	assert.Equal(t, "Greeter", cls.Name)
	assert.Equal(t, "Says hello.", cls.Docstring)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 1)
	fn := funcs[0].(*types.Function)
	assert.Equal(t, "greet", fn.Name)
	assert.True(t, fn.IsMethod)
	assert.True(t, fn.IsAsync)
	assert.Equal(t, "Greet someone.", fn.Docstring)
	require.Len(t, fn.Parameters, 2)
	assert.Equal(t, "self", fn.Parameters[0].Name)
	assert.Equal(t, "name", fn.Parameters[1].Name)
	assert.Equal(t, `"world"`, fn.Parameters[1].Default)
}

func TestPythonModuleVariablesAndImports(t *testing.T) {
	src := `import os
from collections import OrderedDict

MAX_SIZE = 10
name = "x"

def f():
    local = 1
`
	r := registry(t)
	ex, err := r.For(types.LangPython)
	require.NoError(t, err)
	tree := parseFor(t, types.LangPython, src)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 2)
	constant := vars[0].(*types.Variable)
	assert.Equal(t, "MAX_SIZE", constant.Name)
	assert.True(t, constant.IsConstant)
	assert.Equal(t, "10", constant.Value)
	plain := vars[1].(*types.Variable)
	assert.Equal(t, "name", plain.Name)
	assert.False(t, plain.IsConstant)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 2)
	assert.Equal(t, "os", imports[0].(*types.Import).Source)
	assert.Equal(t, "collections", imports[1].(*types.Import).Source)
}

func TestGoExtraction(t *testing.T) {
	src := `package main

import (
	f "fmt"
)

const answer = 42

var greeting = "hello"

// Point is a 2D point.
type Point struct {
	X int
	Y int
}

// Area computes nothing useful.
func (p *Point) Area() int {
	return p.X * p.Y
}

func main() {
	f.Println(greeting)
}
`
	r := registry(t)
	ex, err := r.For(types.LangGo)
	require.NoError(t, err)
	tree := parseFor(t, types.LangGo, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 2)
	area := funcs[0].(*types.Function)
	assert.Equal(t, "Area", area.Name)
	assert.True(t, area.IsMethod)
	assert.Contains(t, area.Receiver, "p *Point")
	assert.Equal(t, "// Area computes nothing useful.", area.Docstring)
	main := funcs[1].(*types.Function)
	assert.Equal(t, "main", main.Name)
	assert.False(t, main.IsMethod)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 1)
	cls := classes[0].(*types.Class)
	assert.Equal(t, "Point", cls.Name)
	assert.Equal(t, "struct", cls.ClassKind)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 2)
	assert.True(t, vars[0].(*types.Variable).IsConstant)
	assert.Equal(t, "answer", vars[0].Base().Name)
	assert.Equal(t, "greeting", vars[1].Base().Name)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	imp := imports[0].(*types.Import)
	assert.Equal(t, "fmt", imp.Source)
	assert.Equal(t, "f", imp.Alias)
}

func TestJavaScriptArrowFunctionNotDoubleCounted(t *testing.T) {
	src := `import { x } from "./x";

const add = (a, b) => a + b;
const limit = 10;

class Calc {
  run() { return add(1, 2); }
}
`
	r := registry(t)
	ex, err := r.For(types.LangJavaScript)
	require.NoError(t, err)
	tree := parseFor(t, types.LangJavaScript, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 2)
	assert.Equal(t, "add", funcs[0].Base().Name)
	run := funcs[1].(*types.Function)
	assert.Equal(t, "run", run.Name)
	assert.True(t, run.IsMethod)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 1)
	limit := vars[0].(*types.Variable)
	assert.Equal(t, "limit", limit.Name)
	assert.True(t, limit.IsConstant)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "./x", imports[0].(*types.Import).Source)
}

func TestTypeScriptClassKinds(t *testing.T) {
	src := `interface Shape { area(): number; }
type ID = string;
enum Color { Red, Green }
class Circle implements Shape {
  area(): number { return 0; }
}
`
	r := registry(t)
	ex, err := r.For(types.LangTypeScript)
	require.NoError(t, err)
	tree := parseFor(t, types.LangTypeScript, src)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 4)

	kinds := map[string]string{}
	for _, c := range classes {
		cls := c.(*types.Class)
		kinds[cls.Name] = cls.ClassKind
	}
	assert.Equal(t, "interface", kinds["Shape"])
	assert.Equal(t, "type", kinds["ID"])
	assert.Equal(t, "enum", kinds["Color"])
	assert.Equal(t, "class", kinds["Circle"])

	for _, c := range classes {
		if cls := c.(*types.Class); cls.Name == "Circle" {
			assert.Contains(t, cls.Bases, "Shape")
		}
	}
}

func TestRustExtraction(t *testing.T) {
	src := `use std::fmt;

const LIMIT: u32 = 8;

/// A wrapper.
struct Wrapper(u32);

trait Render {
    fn render(&self) -> String {
        String::new()
    }
}

impl Wrapper {
    fn value(&self) -> u32 {
        self.0
    }
}

fn free() {}
`
	r := registry(t)
	ex, err := r.For(types.LangRust)
	require.NoError(t, err)
	tree := parseFor(t, types.LangRust, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	var methods, frees int
	for _, f := range funcs {
		if f.(*types.Function).IsMethod {
			methods++
		} else {
			frees++
		}
	}
	assert.Equal(t, 2, methods) // trait fn + impl fn
	assert.Equal(t, 1, frees)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 2)
	assert.Equal(t, "struct", classes[0].(*types.Class).ClassKind)
	assert.Equal(t, "/// A wrapper.", classes[0].(*types.Class).Docstring)
	assert.Equal(t, "trait", classes[1].(*types.Class).ClassKind)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "std::fmt", imports[0].(*types.Import).Source)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 1)
	assert.True(t, vars[0].(*types.Variable).IsConstant)

	// line_comment ends at column 0 of the next row; the span must not
	// bleed onto the struct line.
	comments := ex.ExtractComments(tree, []byte(src))
	require.Len(t, comments, 1)
	doc := comments[0].(*types.Comment)
	assert.True(t, doc.IsDoc)
	assert.Equal(t, 5, doc.StartLine)
	assert.Equal(t, 5, doc.EndLine)
	assert.Equal(t, "/// A wrapper.", doc.RawText)
}

func TestCExtraction(t *testing.T) {
	src := `#include <stdio.h>

struct point { int x; int y; };

int counter = 0;

int add(int a, int b) {
    return a + b;
}
`
	r := registry(t)
	ex, err := r.For(types.LangC)
	require.NoError(t, err)
	tree := parseFor(t, types.LangC, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 1)
	fn := funcs[0].(*types.Function)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "int", fn.ReturnType)
	require.Len(t, fn.Parameters, 2)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 1)
	assert.Equal(t, "struct", classes[0].(*types.Class).ClassKind)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "stdio.h", imports[0].(*types.Import).Source)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 1)
	assert.Equal(t, "counter", vars[0].Base().Name)
}

func TestJavaExtraction(t *testing.T) {
	src := `import java.util.List;

public class Account {
    private int balance;

    public Account(int balance) {
        this.balance = balance;
    }

    public int getBalance() {
        return balance;
    }
}
`
	r := registry(t)
	ex, err := r.For(types.LangJava)
	require.NoError(t, err)
	tree := parseFor(t, types.LangJava, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 2)
	assert.Equal(t, "Account", funcs[0].Base().Name)
	assert.Equal(t, "getBalance", funcs[1].Base().Name)
	assert.True(t, funcs[1].(*types.Function).IsMethod)

	classes := ex.ExtractClasses(tree, []byte(src))
	require.Len(t, classes, 1)
	assert.Contains(t, classes[0].(*types.Class).Modifiers, "public")

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 1)
	field := vars[0].(*types.Variable)
	assert.Equal(t, "balance", field.Name)
	assert.True(t, field.IsField)
	assert.Equal(t, "int", field.VarType)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "java.util.List", imports[0].(*types.Import).Source)
}

func TestRubyExtraction(t *testing.T) {
	src := `require "json"

VERSION = "1.0"

class Parser
  def parse(input)
    JSON.parse(input)
  end
end
`
	r := registry(t)
	ex, err := r.For(types.LangRuby)
	require.NoError(t, err)
	tree := parseFor(t, types.LangRuby, src)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "json", imports[0].(*types.Import).Source)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.Len(t, funcs, 1)
	assert.True(t, funcs[0].(*types.Function).IsMethod)

	vars := ex.ExtractVariables(tree, []byte(src))
	require.Len(t, vars, 1)
	assert.True(t, vars[0].(*types.Variable).IsConstant)
}

func TestHTMLMarkup(t *testing.T) {
	src := `<!doctype html>
<html>
<body class="dark">
  <!-- navigation -->
  <div id="app" data-x="1"><span>hi</span></div>
</body>
</html>
`
	r := registry(t)
	ex, err := r.For(types.LangHTML)
	require.NoError(t, err)
	tree := parseFor(t, types.LangHTML, src)

	markup := ex.(MarkupExtractor).ExtractMarkup(tree, []byte(src))
	tags := map[string]map[string]string{}
	for _, m := range markup {
		el := m.(*types.MarkupElement)
		tags[el.Tag] = el.Attributes
	}
	assert.Contains(t, tags, "html")
	assert.Contains(t, tags, "body")
	assert.Contains(t, tags, "div")
	assert.Contains(t, tags, "span")
	assert.Equal(t, "dark", tags["body"]["class"])
	assert.Equal(t, "app", tags["div"]["id"])

	comments := ex.ExtractComments(tree, []byte(src))
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0].Base().RawText, "navigation")
}

func TestCSSStyles(t *testing.T) {
	src := `@import "base.css";

/* layout */
.container {
  display: flex;
  gap: 4px;
}

@media (max-width: 600px) {
  .container { display: block; }
}
`
	r := registry(t)
	ex, err := r.For(types.LangCSS)
	require.NoError(t, err)
	tree := parseFor(t, types.LangCSS, src)

	styles := ex.(StyleExtractor).ExtractStyles(tree, []byte(src))
	var containers []map[string]string
	mediaSeen := false
	for _, s := range styles {
		el := s.(*types.StyleElement)
		if el.Selector == ".container" {
			containers = append(containers, el.Properties)
		} else if el.Properties == nil {
			mediaSeen = true
		}
	}
	// Top-level rule plus the nested copy inside the media query.
	require.Len(t, containers, 2)
	assert.Equal(t, "flex", containers[0]["display"])
	assert.Equal(t, "4px", containers[0]["gap"])
	assert.Equal(t, "block", containers[1]["display"])
	assert.True(t, mediaSeen)

	imports := ex.ExtractImports(tree, []byte(src))
	require.Len(t, imports, 1)
	assert.Equal(t, "base.css", imports[0].(*types.Import).Source)

	comments := ex.ExtractComments(tree, []byte(src))
	require.Len(t, comments, 1)
}

func TestEmptyFileYieldsNoElements(t *testing.T) {
	r := registry(t)
	for _, language := range []types.Language{types.LangGo, types.LangPython, types.LangHTML} {
		ex, err := r.For(language)
		require.NoError(t, err)
		tree := parseFor(t, language, "")
		assert.Empty(t, ex.ExtractAll(tree, nil), language)
	}
}

func TestNilTreeYieldsNoElements(t *testing.T) {
	r := registry(t)
	ex, err := r.For(types.LangGo)
	require.NoError(t, err)
	assert.Empty(t, ex.ExtractAll(nil, nil))
}

func TestCommentOnlyFile(t *testing.T) {
	src := "# just a note\n# another note\n"
	r := registry(t)
	ex, err := r.For(types.LangPython)
	require.NoError(t, err)
	tree := parseFor(t, types.LangPython, src)

	all := ex.ExtractAll(tree, []byte(src))
	require.Len(t, all, 2)
	for _, el := range all {
		assert.Equal(t, types.KindComment, el.Kind())
	}
}

func TestMalformedSourceStillExtractsSurvivors(t *testing.T) {
	src := "def ok():\n    pass\n\ndef broken(:\n"
	r := registry(t)
	ex, err := r.For(types.LangPython)
	require.NoError(t, err)
	tree := parseFor(t, types.LangPython, src)

	funcs := ex.ExtractFunctions(tree, []byte(src))
	require.NotEmpty(t, funcs)
	assert.Equal(t, "ok", funcs[0].Base().Name)
}

func TestLineSpan(t *testing.T) {
	src := []byte("one\ntwo\nthree\n")
	assert.Equal(t, "one", lineSpan(src, 1, 1))
	assert.Equal(t, "two\nthree", lineSpan(src, 2, 3))
	assert.Equal(t, "", lineSpan(src, 9, 9))
}

func TestStripStringQuotes(t *testing.T) {
	assert.Equal(t, "fmt", stripStringQuotes(`"fmt"`))
	assert.Equal(t, "x", stripStringQuotes(`'x'`))
	assert.Equal(t, `"a`, stripStringQuotes(`"a`))
}
