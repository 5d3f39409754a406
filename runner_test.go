package folio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RoundTrip(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	input := strings.Join([]string{
		`{"kind":"insert_above_first"}`,
		``,
		`not json`,
		`{"kind":"execute_cell","payload":{"cellId":"cell-1","code":"print(1)"}}`,
	}, "\n")
	var out bytes.Buffer

	runner := folio.NewRunner(strings.NewReader(input), &out)
	require.NoError(t, runner.Run(context.Background(), ed))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "invalid message")

	var msg struct {
		Kind    domain.MessageKind          `json:"kind"`
		Payload domain.ReExecuteCellRequest `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &msg))
	assert.Equal(t, domain.MsgReExecuteCell, msg.Kind)
	assert.Equal(t, domain.ReExecuteCellRequest{Code: "print(1)", ID: "cell-1"}, msg.Payload)

	assert.Equal(t, domain.CellStateExecuting, ed.State().Cells[0].Cell.State)
}

func TestRunner_RequiresStreams(t *testing.T) {
	ed := folio.New()
	defer ed.Close()

	assert.Error(t, (&folio.Runner{Output: &bytes.Buffer{}}).Run(context.Background(), ed))
	assert.Error(t, (&folio.Runner{Input: strings.NewReader("")}).Run(context.Background(), ed))
}

func TestRunner_RejectsOversizedLine(t *testing.T) {
	ed := folio.New(folio.WithIDGenerator(sequentialIDs()))
	defer ed.Close()

	input := `{"kind":"insert_above_first","payload":{"pad":"` + strings.Repeat("x", 128) + `"}}` + "\n" +
		`{"kind":"insert_above_first"}`
	var out bytes.Buffer
	runner := &folio.Runner{Input: strings.NewReader(input), Output: &out, MaxLineSize: 64}
	require.NoError(t, runner.Run(context.Background(), ed))

	assert.Contains(t, out.String(), "line exceeds maximum allowed size")
	assert.Len(t, ed.State().Cells, 1)
}
