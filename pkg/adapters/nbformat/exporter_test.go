package nbformat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_TranslateToNotebook(t *testing.T) {
	count := 3
	code := domain.NewEmptyCell("c1")
	code.Data.Source = domain.Source{"import math\n", "x = math.pi\n"}
	code.Data.ExecutionCount = &count
	code.Data.Outputs = []map[string]any{{"output_type": "execute_result"}}

	md := domain.NewEmptyCell("m1")
	md.Data.CellType = domain.CellTypeMarkdown
	md.Data.Source = domain.NewSource("# Title")

	out, err := NewExporter().TranslateToNotebook(context.Background(), []domain.Cell{md, code})
	require.NoError(t, err)
	nb := out.(*Notebook)

	assert.Equal(t, 4, nb.NBFormat)
	require.Len(t, nb.Cells, 2)
	assert.Equal(t, "markdown", nb.Cells[0].CellType)
	assert.Equal(t, []string{"# Title"}, nb.Cells[0].Source)
	assert.Nil(t, nb.Cells[0].ExecutionCount)
	assert.Equal(t, []string{"import math\n", "x = math.pi"}, nb.Cells[1].Source)
	assert.Equal(t, 3, *nb.Cells[1].ExecutionCount)

	raw, err := json.Marshal(nb)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"execution_count":null`)
	assert.Contains(t, string(raw), `"kernelspec"`)
}
