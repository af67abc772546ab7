package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresTitleAndSections(t *testing.T) {
	r := &Report{}
	assert.Error(t, r.Validate())

	r.Title = "Laudo de qualidade de energia"
	assert.Error(t, r.Validate())

	r.Sections = []Section{{Heading: "Tensão", Body: "Dentro da faixa adequada."}}
	assert.NoError(t, r.Validate())

	r.Sections = append(r.Sections, Section{Heading: "", Body: "sem título"})
	assert.Error(t, r.Validate())
}

func TestNormalizeBuildsBibliographyFromCitations(t *testing.T) {
	r := &Report{
		Title: "Laudo",
		Sections: []Section{
			{
				Heading: "Tensão",
				Body:    "ok",
				Citations: []Citation{
					{Norm: "PRODIST Modulo 8", Section: "Tabela 5"},
					{Norm: "REN 956/2021"},
				},
			},
			{
				Heading: "Harmônicas",
				Body:    "ok",
				Citations: []Citation{
					// Duplicate must not repeat in the bibliography.
					{Norm: "PRODIST Modulo 8", Section: "Tabela 5"},
				},
			},
		},
	}

	r.Normalize()

	assert.Equal(t, []string{"PRODIST Modulo 8, Tabela 5", "REN 956/2021"}, r.Bibliography)
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestMarshalRejectsInvalid(t *testing.T) {
	_, err := (&Report{Title: "sem seções"}).Marshal()
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	r := &Report{
		Title:    "Laudo",
		Sections: []Section{{Heading: "Tensão", Body: "ok"}},
	}

	data, err := r.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
	require.Len(t, got.Sections, 1)
}
