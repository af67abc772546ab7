package tool

import (
	"fmt"
	"math"

	"github.com/gridmind/gridmind/core"
)

// NewPowerMetricsTool returns the power_metrics tool. It performs the
// deterministic power-quality calculations that analyses are expected to
// ground in numbers rather than model arithmetic: steady-state voltage
// classification, demand factor and total harmonic distortion.
func NewPowerMetricsTool() Tool {
	return NewFunctionTool(
		"power_metrics",
		"Compute power-quality metrics: classify a steady-state voltage reading into "+
			"adequate/precarious/critical bands, calculate a demand factor, or compute "+
			"total harmonic distortion from harmonic magnitudes.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"enum":        []string{"voltage_deviation", "demand_factor", "thd"},
					"description": "Which metric to compute",
				},
				"nominal_v": map[string]any{
					"type":        "number",
					"description": "Nominal voltage in volts (voltage_deviation)",
				},
				"measured_v": map[string]any{
					"type":        "number",
					"description": "Measured steady-state voltage in volts (voltage_deviation)",
				},
				"voltage_class": map[string]any{
					"type":        "string",
					"enum":        []string{"lv", "mv"},
					"description": "Supply class: lv below 1 kV, mv from 1 kV to 69 kV (voltage_deviation, default lv)",
				},
				"peak_kw": map[string]any{
					"type":        "number",
					"description": "Measured peak demand in kW (demand_factor)",
				},
				"installed_kw": map[string]any{
					"type":        "number",
					"description": "Total installed load in kW (demand_factor)",
				},
				"fundamental": map[string]any{
					"type":        "number",
					"description": "RMS magnitude of the fundamental component (thd)",
				},
				"harmonics": map[string]any{
					"type":        "array",
					"description": "RMS magnitudes of harmonic components, order 2 upwards (thd)",
				},
			},
			"required": []string{"operation"},
		},
		powerMetrics,
	)
}

func powerMetrics(_ *core.ToolContext, args map[string]any) (any, error) {
	op, _ := args["operation"].(string)

	switch op {
	case "voltage_deviation":
		return voltageDeviation(args)
	case "demand_factor":
		return demandFactor(args)
	case "thd":
		return totalHarmonicDistortion(args)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// voltageDeviation classifies a steady-state reading into the attendance
// bands used for supply-quality assessment. Band limits in per-unit:
//
//	lv (below 1 kV):     adequate 0.92..1.05, precarious 0.87..0.92 and 1.05..1.06
//	mv (1 kV to 69 kV):  adequate 0.93..1.05, precarious 0.90..0.93
//
// Readings outside the precarious range are critical.
func voltageDeviation(args map[string]any) (any, error) {
	nominal, ok := args["nominal_v"].(float64)
	if !ok || nominal <= 0 {
		return nil, fmt.Errorf("nominal_v must be a positive number")
	}
	measured, ok := args["measured_v"].(float64)
	if !ok || measured < 0 {
		return nil, fmt.Errorf("measured_v must be a non-negative number")
	}

	class, _ := args["voltage_class"].(string)
	if class == "" {
		class = "lv"
	}

	pu := measured / nominal

	var band string
	switch class {
	case "lv":
		switch {
		case pu >= 0.92 && pu <= 1.05:
			band = "adequate"
		case (pu >= 0.87 && pu < 0.92) || (pu > 1.05 && pu <= 1.06):
			band = "precarious"
		default:
			band = "critical"
		}
	case "mv":
		switch {
		case pu >= 0.93 && pu <= 1.05:
			band = "adequate"
		case pu >= 0.90 && pu < 0.93:
			band = "precarious"
		default:
			band = "critical"
		}
	default:
		return nil, fmt.Errorf("unknown voltage_class %q", class)
	}

	return map[string]any{
		"per_unit":          round4(pu),
		"deviation_percent": round4((pu - 1) * 100),
		"band":              band,
		"voltage_class":     class,
	}, nil
}

func demandFactor(args map[string]any) (any, error) {
	peak, ok := args["peak_kw"].(float64)
	if !ok || peak < 0 {
		return nil, fmt.Errorf("peak_kw must be a non-negative number")
	}
	installed, ok := args["installed_kw"].(float64)
	if !ok || installed <= 0 {
		return nil, fmt.Errorf("installed_kw must be a positive number")
	}

	return map[string]any{
		"demand_factor": round4(peak / installed),
		"peak_kw":       peak,
		"installed_kw":  installed,
	}, nil
}

func totalHarmonicDistortion(args map[string]any) (any, error) {
	fundamental, ok := args["fundamental"].(float64)
	if !ok || fundamental <= 0 {
		return nil, fmt.Errorf("fundamental must be a positive number")
	}

	raw, ok := args["harmonics"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("harmonics must be a non-empty array of numbers")
	}

	var sumSquares float64
	for i, v := range raw {
		h, ok := v.(float64)
		if !ok || h < 0 {
			return nil, fmt.Errorf("harmonics[%d] must be a non-negative number", i)
		}
		sumSquares += h * h
	}

	thd := math.Sqrt(sumSquares) / fundamental * 100

	return map[string]any{
		"thd_percent":     round4(thd),
		"harmonic_orders": len(raw),
	}, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
