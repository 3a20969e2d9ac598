package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupsMappingKeepsOrder(t *testing.T) {
	data := []byte(`
name: week1
cell: Z47
groups:
  Zeta: [8, 15]
  Alpha: [22]
  Mid Ramp: []
`)
	gf, err := ParseGroups(data)
	require.NoError(t, err)

	assert.Equal(t, "week1", gf.Name)
	assert.Equal(t, "Z47", gf.Cell)
	require.Len(t, gf.Groups, 3)
	assert.Equal(t, Group{Name: "Zeta", Sheets: []int{8, 15}}, gf.Groups[0])
	assert.Equal(t, "Alpha", gf.Groups[1].Name)
	assert.Equal(t, "Mid Ramp", gf.Groups[2].Name)
	assert.Empty(t, gf.Groups[2].Sheets)
}

func TestParseGroupsList(t *testing.T) {
	data := []byte(`
groups:
  - name: Eastbound
    sheets: [1, 2, 3]
  - name: Westbound
    sheets: [4]
`)
	gf, err := ParseGroups(data)
	require.NoError(t, err)
	require.Len(t, gf.Groups, 2)
	assert.Equal(t, []int{1, 2, 3}, gf.Groups[0].Sheets)
	assert.Equal(t, "Westbound", gf.Groups[1].Name)
}

func TestParseGroupsRejectsDuplicates(t *testing.T) {
	data := []byte(`
groups:
  - name: A
    sheets: [1]
  - name: A
    sheets: [2]
`)
	_, err := ParseGroups(data)
	assert.Error(t, err)
}

func TestParseGroupsRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no groups":     "name: empty\n",
		"scalar groups": "groups: 5\n",
		"bad positions": "groups:\n  A: [one, two]\n",
		"bad cell":      "cell: 47Z\ngroups:\n  A: [1]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGroups([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadGroupsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groups:\n  A: [1, 2]\n"), 0644))

	gf, err := LoadGroupsFile(path)
	require.NoError(t, err)
	assert.Equal(t, GroupList{{Name: "A", Sheets: []int{1, 2}}}, gf.Groups)

	_, err = LoadGroupsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExampleGroupsFile(t *testing.T) {
	gf, err := LoadGroupsFile(filepath.Join("..", "..", "examples", "week1.yaml"))
	require.NoError(t, err)
	require.Len(t, gf.Groups, 6)
	assert.Equal(t, "Hiawassee EB", gf.Groups[0].Name)
	assert.Len(t, gf.Groups[0].Sheets, 9)
	assert.Equal(t, "Hiawassee WB Off Ramp", gf.Groups[5].Name)
}
