package cellmatch

import (
	"fmt"
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Markers(t *testing.T) {
	m := Default()

	for _, line := range []string{"#%%", "# %%", "# <codecell>", "# In[12]", "# In[]", "# In[ ]", "  #%%  "} {
		assert.True(t, m.IsCode(line), line)
		assert.True(t, m.IsCell(line), line)
	}
	for _, line := range []string{"#%% [markdown]", "# %% [markdown]", "# <markdowncell>"} {
		assert.True(t, m.IsMarkdown(line), line)
		assert.False(t, m.IsCode(line), line)
		assert.Equal(t, domain.CellTypeMarkdown, m.CellType(line))
	}
	for _, line := range []string{"x = 1", "# a comment", "print('#%%')"} {
		assert.False(t, m.IsCell(line), line)
	}
}

func TestMatcher_StripFirstMarker(t *testing.T) {
	m := Default()

	assert.Equal(t, "", m.StripFirstMarker("#%%"))
	assert.Equal(t, "", m.StripFirstMarker("#%%\n"))
	assert.Equal(t, "x=1", m.StripFirstMarker("#%%\nx=1"))
	assert.Equal(t, "x=1\n#%%\ny=2", m.StripFirstMarker("x=1\n#%%\ny=2"))
	assert.Equal(t, "#%%\ny", m.StripFirstMarker("#%%\n#%%\ny"))
}

func TestMatcher_CustomPatterns(t *testing.T) {
	m, err := New(`^--\s*cell`, `^--\s*md`)
	require.NoError(t, err)
	assert.True(t, m.IsCode("-- cell"))
	assert.True(t, m.IsMarkdown("-- md"))
	assert.False(t, m.IsCell("#%%"))

	_, err = New(`(`, "")
	assert.Error(t, err)
}

func TestMatcher_SplitCells(t *testing.T) {
	m := Default()
	n := 0
	ids := func() string { n++; return fmt.Sprintf("c%d", n) }

	script := "import os\n\n#%% [markdown]\n# # Title\n# Some text\n#%%\nx = 1\nprint(x)\n\n# In[2]\ny = 2\n"
	cells := m.SplitCells(script, ids)
	require.Len(t, cells, 4)

	assert.Equal(t, domain.CellTypeCode, cells[0].Data.CellType)
	assert.Equal(t, "import os", cells[0].Data.Source.String())

	assert.Equal(t, domain.CellTypeMarkdown, cells[1].Data.CellType)
	assert.Equal(t, "# Title\nSome text", cells[1].Data.Source.String())
	assert.Equal(t, 3, cells[1].Line)

	assert.Equal(t, "x = 1\nprint(x)", cells[2].Data.Source.String())
	assert.Equal(t, "y = 2", cells[3].Data.Source.String())
	assert.Equal(t, "c4", cells[3].ID)
}

func TestMatcher_SplitCells_NoMarkers(t *testing.T) {
	cells := Default().SplitCells("a = 1\nb = 2", func() string { return "only" })
	require.Len(t, cells, 1)
	assert.Equal(t, "a = 1\nb = 2", cells[0].Data.Source.String())

	assert.Empty(t, Default().SplitCells("\n\n", func() string { return "x" }))
}
