package agent

import (
	"sort"
	"strings"
)

// routingSignals maps each routable specialist to the lowercase keywords
// that indicate its competence. Accented and unaccented spellings are both
// listed because user input arrives either way.
var routingSignals = map[string][]string{
	DataScientistName: {
		"dados", "medicao", "medição", "medicoes", "medições", "leitura", "leituras",
		"serie", "série", "historico", "histórico", "tendencia", "tendência",
		"media", "média", "estatistica", "estatística", "grafico", "gráfico",
		"csv", "planilha", "demanda", "consumo", "perfil", "curva",
		"data", "measurement", "trend", "average", "statistics", "chart",
	},
	ElectricEngineerName: {
		"norma", "normas", "regulacao", "regulação", "regulamento", "resolucao", "resolução",
		"aneel", "prodist", "abnt", "resolucao normativa", "resolução normativa",
		"conformidade", "compliance", "laudo",
		"tensao", "tensão", "harmonica", "harmônica", "harmonicas", "harmônicas",
		"transformador", "subestacao", "subestação", "aterramento", "fator de potencia",
		"fator de potência", "regulation", "voltage", "standard", "norm", "thd",
	},
}

// routeOrder fixes the tie-break between specialists with equal signal
// counts, so routing is deterministic.
var routeOrder = []string{DataScientistName, ElectricEngineerName}

// Route picks the specialists a user request should be delegated to.
//
// Each specialist scores one point per matched keyword. Every specialist
// with at least one hit is returned, best first, capped at maxFanOut; a
// request matching several competences deliberately fans out instead of
// forcing a single guess. A request matching nothing goes to the electric
// engineer, the assistant's broadest competence.
func Route(text string, maxFanOut int) []string {
	if maxFanOut <= 0 {
		maxFanOut = 1
	}

	lowered := strings.ToLower(text)

	scores := map[string]int{}
	for name, signals := range routingSignals {
		for _, signal := range signals {
			if strings.Contains(lowered, signal) {
				scores[name]++
			}
		}
	}

	var ranked []string
	for _, name := range routeOrder {
		if scores[name] > 0 {
			ranked = append(ranked, name)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})

	if len(ranked) == 0 {
		return []string{ElectricEngineerName}
	}
	if len(ranked) > maxFanOut {
		ranked = ranked[:maxFanOut]
	}

	return ranked
}
