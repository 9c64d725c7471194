package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableGroup(t *testing.T) {
	table := NewTable(map[string][]string{
		"Kisumu":   {"Kakamega", " Vihiga ", "Kakamega", ""},
		"  ":       {"Nowhere"},
		"Nairobi ": nil,
	})

	assert.Equal(t, []string{"Kisumu", "Kakamega", "Vihiga"}, table.Group("Kisumu"))
	assert.Equal(t, []string{"Nairobi"}, table.Group("Nairobi"))
	assert.Equal(t, []string{"Kakamega"}, table.Group("Kakamega"))
	assert.Nil(t, table.Group(""))
	assert.Equal(t, []string{"Kisumu", "Nairobi"}, table.Locations())

	// callers must not be able to mutate the table
	g := table.Group("Kisumu")
	g[0] = "Mombasa"
	assert.Equal(t, "Kisumu", table.Group("Kisumu")[0])
}

func TestTableInGroup(t *testing.T) {
	table := NewTable(map[string][]string{"Kisumu": {"Kakamega"}})

	assert.True(t, table.InGroup("Kisumu", "Kakamega"))
	assert.True(t, table.InGroup("Kisumu", "Kisumu"))
	assert.False(t, table.InGroup("Kakamega", "Kisumu"))
	assert.True(t, table.InGroup("Eldoret", "Eldoret"))
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.Equal(t, []string{"Kisumu"}, table.Group("Kisumu"))
	assert.Nil(t, table.Locations())
}
