package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/domain/inventory"
)

func TestGroupByRemission(t *testing.T) {
	legOut := mov("t1", entity.MovementTypeTransfer, day(3), "-2", "5")
	legOut.RemissionNumber = "TR-1"
	legOut.IndexInTransaction = 0
	legIn := mov("t2", entity.MovementTypeTransfer, day(3), "2", "5")
	legIn.RemissionNumber = "TR-1"
	legIn.IndexInTransaction = 1
	legIn.BranchID = branchNte

	adjIn := mov("a1", entity.MovementTypeInflow, day(5), "1", "5")
	adjIn.RemissionNumber = inventory.AdjustmentRemission("c1")
	adjIn.IndexInTransaction = 0
	adjOut := mov("a2", entity.MovementTypeOutflow, day(5), "1", "5")
	adjOut.RemissionNumber = inventory.AdjustmentRemission("c1")
	adjOut.IndexInTransaction = 1

	loose := mov("x", entity.MovementTypeInflow, day(1), "1", "1")

	groups := inventory.GroupByRemission([]entity.StockMovement{legIn, adjOut, loose, legOut, adjIn})

	require.Len(t, groups, 3)
	assert.Equal(t, entity.MovementTypeAdjustment, groups[0].Type)
	assert.Equal(t, []string{"a1", "a2"}, []string{groups[0].Movements[0].ID, groups[0].Movements[1].ID})

	assert.Equal(t, "TR-1", groups[1].RemissionNumber)
	assert.Equal(t, entity.MovementTypeTransfer, groups[1].Type)
	assert.Equal(t, "t1", groups[1].Movements[0].ID)

	assert.Equal(t, "", groups[2].RemissionNumber)
	assert.Equal(t, entity.MovementTypeInflow, groups[2].Type)
}
