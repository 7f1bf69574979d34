// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpKind_Known(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Known(), "kind %s", k)
	}
	assert.False(t, OpKind("rename").Known())
	assert.False(t, OpKind("").Known())
}

func TestOp_Target(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		want string
	}{
		{"replace", Op{Kind: KindReplace, Search: Str("x"), Anchor: Str("a")}, "x"},
		{"delete_match", Op{Kind: KindDeleteMatch, Search: Str("y")}, "y"},
		{"insert_after", Op{Kind: KindInsertAfter, Anchor: Str("a"), Search: Str("x")}, "a"},
		{"insert_before missing anchor", Op{Kind: KindInsertBefore}, ""},
		{"append", Op{Kind: KindAppend, Content: Str("c")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Target())
		})
	}
}
