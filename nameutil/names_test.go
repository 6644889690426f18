// VyPR
// Copyright (C) 2018-2026+ Joshua Dawes and the VyPR contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package nameutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshdawes/vypr/ast"
)

func TestFunctionNamesInSimpleCall(t *testing.T) {
	// f(x)
	call := &ast.Call{Func: &ast.Name{Id: "f"}, Args: []ast.Node{&ast.Name{Id: "x"}}}
	names, err := FunctionNamesIn(call)
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, names)
}

func TestFunctionNamesInDottedCall(t *testing.T) {
	// a.b.c()
	call := &ast.Call{
		Func: &ast.Attribute{
			Value: &ast.Attribute{Value: &ast.Name{Id: "a"}, Attr: "b"},
			Attr:  "c",
		},
	}
	names, err := FunctionNamesIn(call)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b.c"}, names)
}

func TestFunctionNamesInNestedCalls(t *testing.T) {
	// f(g(x))
	inner := &ast.Call{Func: &ast.Name{Id: "g"}, Args: []ast.Node{&ast.Name{Id: "x"}}}
	outer := &ast.Call{Func: &ast.Name{Id: "f"}, Args: []ast.Node{inner}}
	names, err := FunctionNamesIn(outer)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f", "g"}, names)
}

func TestFunctionNamesInSubscriptedCallee(t *testing.T) {
	// handlers["foo"].run()
	call := &ast.Call{
		Func: &ast.Attribute{
			Value: &ast.Subscript{
				Value: &ast.Name{Id: "handlers"},
				Slice: &ast.Index{Value: &ast.Str{S: "foo"}},
			},
			Attr: "run",
		},
	}
	names, err := FunctionNamesIn(call)
	require.NoError(t, err)
	// the subscript index is traversed but not part of the name
	assert.Equal(t, []string{"handlers.run"}, names)
}

func TestReversedStringListAttribute(t *testing.T) {
	// A.b
	node := &ast.Attribute{Value: &ast.Name{Id: "A"}, Attr: "b"}
	result, err := ReversedStringList(node, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "A"}, result)
}

func TestReversedStringListSubscriptNumeric(t *testing.T) {
	// a[0]
	node := &ast.Subscript{Value: &ast.Name{Id: "a"}, Slice: &ast.Index{Value: &ast.Num{N: 0}}}
	result, err := ReversedStringList(node, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"[0]", "a"}, result)
}

func TestReversedStringListSubscriptOmitted(t *testing.T) {
	node := &ast.Subscript{Value: &ast.Name{Id: "a"}, Slice: &ast.Index{Value: &ast.Num{N: 0}}}
	result, err := ReversedStringList(node, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result)
}

func TestAttrNameStringLoadContext(t *testing.T) {
	s, err := AttrNameString(&ast.Load{}, false)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestAttrNameStringDottedPath(t *testing.T) {
	// a.b["c"]
	node := &ast.Subscript{
		Value: &ast.Attribute{Value: &ast.Name{Id: "a"}, Attr: "b"},
		Slice: &ast.Index{Value: &ast.Str{S: "c"}},
	}
	s, err := AttrNameString(node, false)
	require.NoError(t, err)
	assert.Equal(t, `a.b["c"]`, s)
}

// TestAttrNameStringRoundTrip checks that, for each supported node shape,
// the path string AttrNameString renders from a hand-constructed tree is
// exactly the source text that tree stands for.
func TestAttrNameStringRoundTrip(t *testing.T) {
	cases := []struct {
		node ast.Node
		want string
	}{
		{&ast.Name{Id: "x"}, "x"},
		{&ast.Attribute{Value: &ast.Name{Id: "x"}, Attr: "y"}, "x.y"},
		{&ast.Subscript{Value: &ast.Name{Id: "x"}, Slice: &ast.Index{Value: &ast.Num{N: 3}}}, "x[3]"},
		{&ast.Subscript{Value: &ast.Name{Id: "x"}, Slice: &ast.Index{Value: &ast.Name{Id: "i"}}}, "x[i]"},
	}
	for _, c := range cases {
		got, err := AttrNameString(c.node, false)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestFunctionNamesInUnsupportedNode(t *testing.T) {
	call := &ast.Call{Func: &ast.Num{N: 1}}
	_, err := FunctionNamesIn(call)
	require.Error(t, err)
	var unsupported *ErrUnsupportedNode
	assert.ErrorAs(t, err, &unsupported)
}
