package gridmind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/model"
)

func TestRunTurn_EndToEnd(t *testing.T) {
	llm := model.NewMock()
	llm.Enqueue(model.Response{Text: "Bom dia! Posso ajudar com dúvidas sobre regulação do setor elétrico.", FinishReason: "stop"})

	gm := New(llm)

	out, err := gm.RunTurn(context.Background(), "sess-1", "maria", "bom dia")
	require.NoError(t, err)
	assert.Equal(t, core.TurnComplete, out.Turn.Status)
	assert.Contains(t, out.Response, "Bom dia")
	assert.EqualValues(t, 2, out.Version)

	sess, err := gm.Session(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, sess.CurrentVersion())
	require.Len(t, sess.GetTurns(), 2)
}

func TestIngestAndQuery(t *testing.T) {
	ctx := context.Background()
	gm := New(model.NewMock())

	ids, err := gm.Ingest(ctx, core.Document{
		ID:   "ren-1000-2021",
		Text: "A compensação por transgressão dos limites de tensão é devida ao consumidor quando o indicador DRP ou DRC excede o limite regulatório.",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	hits, err := gm.Query(ctx, "compensação por transgressão de tensão", 3, core.QueryFilters{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ren-1000-2021", hits[0].Chunk.DocID)
}
