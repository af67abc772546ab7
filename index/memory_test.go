package index

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
)

// backends under test share one behavior suite.
func newBackends(t *testing.T, m *embed.Mock) map[string]core.DocumentIndex {
	t.Helper()

	sq, err := NewSQLite(filepath.Join(t.TempDir(), "index.db"), m, WithChunking(8, 2))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]core.DocumentIndex{
		"memory": NewInMemory(m, WithChunking(8, 2)),
		"sqlite": sq,
	}
}

func TestIngest_StableIDsAndIdempotency(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(32)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := core.Document{ID: "prodist-8", Title: "PRODIST Modulo 8", Text: strings.Repeat("tensao em regime permanente deve ficar na faixa adequada ", 4)}

			ids1, err := ix.Ingest(ctx, doc)
			require.NoError(t, err)
			require.NotEmpty(t, ids1)

			ids2, err := ix.Ingest(ctx, doc)
			require.NoError(t, err)
			assert.Equal(t, ids1, ids2, "unchanged text must reproduce the same chunk ids")
		})
	}
}

func TestIngest_NewGenerationSupersedesOld(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(32)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := ix.Ingest(ctx, core.Document{ID: "ren-956", Title: "REN 956", Text: "limite antigo de distorcao harmonica total era dez por cento"})
			require.NoError(t, err)

			_, err = ix.Ingest(ctx, core.Document{ID: "ren-956", Title: "REN 956", Text: "limite novo de distorcao harmonica total passa a ser oito por cento"})
			require.NoError(t, err)

			hits, err := ix.Query(ctx, "limite distorcao harmonica total", 10, core.QueryFilters{})
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			for _, h := range hits {
				assert.Equal(t, int64(2), h.Chunk.Generation, "only latest generation chunks may match")
				assert.NotContains(t, h.Chunk.Text, "antigo")
			}
		})
	}
}

func TestQuery_OrderingAndK(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(64)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			docs := []core.Document{
				{ID: "d1", Title: "Voltage", Text: "faixa de tensao adequada precaria e critica em regime permanente"},
				{ID: "d2", Title: "Harmonics", Text: "distorcao harmonica total limites por nivel de tensao"},
				{ID: "d3", Title: "Billing", Text: "faturamento e tarifas de uso do sistema de distribuicao"},
			}
			for _, d := range docs {
				_, err := ix.Ingest(ctx, d)
				require.NoError(t, err)
			}

			hits, err := ix.Query(ctx, "faixa de tensao adequada regime permanente", 2, core.QueryFilters{})
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.LessOrEqual(t, len(hits), 2)
			for i := 1; i < len(hits); i++ {
				assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "scores must descend")
			}
			assert.Equal(t, "d1", hits[0].Chunk.DocID)
		})
	}
}

func TestQuery_EmptyCorpusAndZeroK(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(16)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			hits, err := ix.Query(ctx, "anything", 5, core.QueryFilters{})
			require.NoError(t, err)
			assert.Empty(t, hits, "empty corpus yields empty result, not an error")

			_, err = ix.Ingest(ctx, core.Document{ID: "d1", Text: "conteudo qualquer para o indice"})
			require.NoError(t, err)

			hits, err = ix.Query(ctx, "conteudo", 0, core.QueryFilters{})
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestQuery_EmbedderUnavailable(t *testing.T) {
	m := embed.NewMock(16)
	for name, ix := range newBackends(t, m) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			m.Fail = false
			_, err := ix.Ingest(ctx, core.Document{ID: "d1", Text: "texto base para consulta"})
			require.NoError(t, err)

			m.Fail = true
			_, err = ix.Query(ctx, "texto base", 3, core.QueryFilters{})
			require.Error(t, err)
			assert.True(t, core.IsRetrievalUnavailable(err), "embedding outage must map to the retryable retrieval error")
			m.Fail = false
		})
	}
}

func TestRecordLearning_QueryableWithProvenance(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(64)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			prov := core.LearningProvenance{Agent: "electric_engineer", TaskID: "t-1", SessionID: "s-1"}
			id, err := ix.RecordLearning(ctx, "transformadores de distribuicao seguem a norma NBR 5356", prov)
			require.NoError(t, err)
			require.NotEmpty(t, id)

			again, err := ix.RecordLearning(ctx, "transformadores de distribuicao seguem a norma NBR 5356", prov)
			require.NoError(t, err)
			assert.Equal(t, id, again, "identical learning text must be idempotent")

			hits, err := ix.Query(ctx, "norma para transformadores de distribuicao", 5, core.QueryFilters{Provenance: core.ProvenanceLearned})
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.Equal(t, core.ProvenanceLearned, hits[0].Chunk.Provenance)
			assert.Contains(t, hits[0].Chunk.Origin, "electric_engineer")
		})
	}
}

func TestQuery_DocIDFilter(t *testing.T) {
	for name, ix := range newBackends(t, embed.NewMock(64)) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := ix.Ingest(ctx, core.Document{ID: "d1", Text: "qualidade de energia tensao"})
			require.NoError(t, err)
			_, err = ix.Ingest(ctx, core.Document{ID: "d2", Text: "qualidade de energia tensao"})
			require.NoError(t, err)

			hits, err := ix.Query(ctx, "qualidade de energia", 10, core.QueryFilters{DocIDs: []string{"d2"}})
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			for _, h := range hits {
				assert.Equal(t, "d2", h.Chunk.DocID)
			}
		})
	}
}
