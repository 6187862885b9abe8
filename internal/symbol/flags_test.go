package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/morphocore/internal/vec"
)

func TestGranularityJoin(t *testing.T) {
	testCases := []struct {
		a, b, want Granularity
	}{
		{Global, Global, Global},
		{Global, Cell, Cell},
		{Cell, Global, Cell},
		{Cell, MembraneNode, MembraneNode},
		{MembraneNode, Node, Node},
		{Node, MembraneNode, Node},
	}
	for _, tc := range testCases {
		t.Run(tc.a.String()+"+"+tc.b.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Join(tc.b))
		})
	}
}

func TestFlagsCombine(t *testing.T) {
	acc := ConstFlags()
	acc = acc.Combine(Flags{Granularity: Cell, SpaceConst: false, TimeConst: true, Writable: true, Integer: true})
	assert.Equal(t, Cell, acc.Granularity)
	assert.False(t, acc.SpaceConst)
	assert.True(t, acc.TimeConst)
	assert.False(t, acc.Writable)
	assert.False(t, acc.Integer)

	acc = acc.Combine(Flags{Stochastic: true, PartiallyDefined: true, SpaceConst: true})
	assert.True(t, acc.Stochastic)
	assert.True(t, acc.PartiallyDefined)
	assert.False(t, acc.TimeConst)
	assert.False(t, acc.Constant())
	assert.Equal(t, "Cell|stochastic|partially_defined", acc.String())
}

func TestFocusKinds(t *testing.T) {
	var zero Focus
	assert.True(t, zero.IsGlobal())
	assert.Equal(t, GlobalFocus(), zero)

	cf := CellFocus(4)
	id, ok := cf.Cell()
	assert.True(t, ok)
	assert.Equal(t, CellID(4), id)
	assert.Equal(t, Cell, cf.Granularity())

	_, ok = GlobalFocus().Cell()
	assert.False(t, ok)
	assert.Equal(t, Node, CellNodeFocus(1, vec.Vec3{}).Granularity())
}
