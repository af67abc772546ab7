package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_RegulatoryQuestion(t *testing.T) {
	got := Route("Qual a resolução da ANEEL sobre conformidade de tensão?", 2)
	assert.Equal(t, []string{ElectricEngineerName}, got)
}

func TestRoute_DataQuestion(t *testing.T) {
	got := Route("Analise a tendência da média de consumo na planilha de medições", 2)
	assert.Equal(t, []string{DataScientistName}, got)
}

func TestRoute_AmbiguousFansOut(t *testing.T) {
	got := Route("Analise as medições de tensão e verifique conformidade com o PRODIST", 2)
	assert.ElementsMatch(t, []string{DataScientistName, ElectricEngineerName}, got)
}

func TestRoute_FanOutCapped(t *testing.T) {
	got := Route("Analise as medições de tensão e verifique conformidade com o PRODIST", 1)
	assert.Len(t, got, 1)
}

func TestRoute_DefaultsToEngineer(t *testing.T) {
	got := Route("bom dia", 2)
	assert.Equal(t, []string{ElectricEngineerName}, got)
}

func TestRoute_RankedBySignalCount(t *testing.T) {
	// Heavier on data signals than regulatory ones; data scientist first.
	got := Route("estatística da média das medições de demanda versus a norma", 2)
	assert.Equal(t, DataScientistName, got[0])
}
