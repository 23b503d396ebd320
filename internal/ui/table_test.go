package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_ColumnWidths(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Name", "Region"},
		Rows: [][]string{
			{"12", "Groceries", "-"},
			{"3", "Pick up dry cleaning", "40.70000, -74.00000 · 100m"},
		},
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 2, widths[0])
	assert.Equal(t, 20, widths[1])
	assert.Equal(t, 26, widths[2])
}

func TestTable_ColumnWidths_MaxWidth(t *testing.T) {
	table := &Table{
		Headers:  []string{"ID", "Name"},
		Rows:     [][]string{{"1", "A task name that is far too long for one column"}},
		MaxWidth: 20,
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 2, widths[0])
	assert.Equal(t, 20, widths[1])
}

func TestTable_ColumnWidths_WideRunes(t *testing.T) {
	table := &Table{
		Headers: []string{"N"},
		Rows:    [][]string{{"café"}, {"日本"}},
	}

	assert.Equal(t, 4, table.ColumnWidths()[0])
}

func TestTable_Render(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Name"},
		Rows: [][]string{
			{"1", "Groceries"},
			{"2", "Pharmacy"},
		},
	}

	output := table.Render()

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Groceries")
	assert.Contains(t, output, "Pharmacy")
	assert.Contains(t, output, "─")
}

func TestTable_Render_Empty(t *testing.T) {
	table := &Table{}
	assert.Empty(t, table.Render())
}

func TestTable_Render_Truncation(t *testing.T) {
	table := &Table{
		Headers:  []string{"Text"},
		Rows:     [][]string{{"This is way too long"}},
		MaxWidth: 10,
	}

	assert.Contains(t, table.Render(), "This is w…")
}

func TestTable_Render_RowsHaveFewerColumns(t *testing.T) {
	table := &Table{
		Headers: []string{"A", "B", "C"},
		Rows:    [][]string{{"1"}},
	}

	lines := strings.Split(strings.TrimSpace(table.Render()), "\n")
	assert.Len(t, lines, 3)
}

func TestFit(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long", 5, "too …"},
		{"ab", 1, "…"},
		{"café au lait", 5, "café…"},
		{"anything", 0, "anything"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, fit(tc.input, tc.width), tc.input)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"abc", 5, "abc  "},
		{"hello", 5, "hello"},
		{"longer", 3, "longer"},
		{"", 3, "   "},
		{"é", 3, "é  "},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, padRight(tc.input, tc.width))
	}
}
