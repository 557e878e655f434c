package langguess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuess(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"python def", "def foo():\n    return 1", "python"},
		{"python print", `print("hi")`, "python"},
		{"python import", "import os", "python"},
		{"es module import counts as python first", "import React from 'react'", "python"},
		{"javascript console", "console.log('x');", "javascript"},
		{"javascript function", "function add(a, b) { return a + b; }", "javascript"},
		{"javascript arrow", "const f = (x) => x * 2;", "javascript"},
		{"bash command", "cd /tmp\nls -la", "bash"},
		{"bash prompt prefix", "$ git status", "bash"},
		{"sql select", "SELECT id FROM users;", "sql"},
		{"sql create table", "CREATE TABLE t (id int);", "sql"},
		{"html doctype", "<!DOCTYPE html>\n<p>x</p>", "html"},
		{"xml prolog", `<?xml version="1.0"?><a/>`, "html"},
		{"json object", `{"a": 1, "b": [1, 2]}`, "json"},
		{"yaml mapping", "name: demo\nversion: 2", "yaml"},
		{"c include", "#include <stdio.h>", "c"},
		{"c main", "int main(void) { return 0; }", "c"},
		{"java class", "public class Main {}", "java"},
		{"java println", "System.out.println(1);", "java"},
		{"rust main", "fn main() {}", "rust"},
		{"rust let mut", "let mut x = 5;", "rust"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Guess(tt.code)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuess_NoMatch(t *testing.T) {
	for _, code := range []string{"", "   ", "some plain code", "hello world"} {
		got, ok := Guess(code)
		assert.False(t, ok, "code %q", code)
		assert.Empty(t, got)
	}
}

func TestGuess_YAMLRejectsBracesAndSemicolons(t *testing.T) {
	_, ok := Guess("key: value;")
	assert.False(t, ok)
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	assert.Equal(t, "python", langs[0])
	assert.Equal(t, "rust", langs[len(langs)-1])
	assert.Len(t, langs, 10)
}

func TestGuesser_NilBehavesLikeGuess(t *testing.T) {
	var g *Guesser

	lang, ok := g.Guess("def f():\n  pass")
	assert.True(t, ok)
	assert.Equal(t, "python", lang)

	_, ok = g.Guess("plain words")
	assert.False(t, ok)

	assert.Equal(t, "py", g.NormalizeTag("PY"))
}

func TestGuesser_NormalizeTag(t *testing.T) {
	g := &Guesser{Canonicalize: true}

	tests := []struct {
		tag  string
		want string
	}{
		{"", ""},
		{"Python", "python"},
		{"py", "python"},
		{"JS", "javascript"},
		{"sh", "bash"},
		{"no-such-language-xyz", "no-such-language-xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, g.NormalizeTag(tt.tag))
		})
	}
}

func TestGuesser_ExtendedShebang(t *testing.T) {
	g := &Guesser{Extended: true}

	lang, ok := g.Guess("#!/usr/bin/env bash\nset -e\nmake all")
	assert.True(t, ok)
	assert.Equal(t, "bash", lang)
}

func TestGuesser_ExtendedIgnoresBlank(t *testing.T) {
	g := &Guesser{Extended: true}
	_, ok := g.Guess("  \n ")
	assert.False(t, ok)
}

func TestLower(t *testing.T) {
	assert.Equal(t, "python", Lower("PYTHON"))
	assert.Equal(t, "c++", Lower("C++"))
}
