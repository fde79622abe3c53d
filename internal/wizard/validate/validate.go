// Package validate reúne os predicados puros aplicados a cada campo do wizard.
// Nenhuma função aqui faz I/O: uma falha apenas volta ao operador como
// mensagem corretiva, sem chamada de rede.
package validate

import (
	"math"
	"strconv"
	"strings"
)

// NonEmpty reports whether s has any non-space character.
func NonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// EmailShape aceita qualquer texto não vazio que contenha "@".
func EmailShape(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Contains(s, "@")
}

// Number faz o parse de um decimal finito ("4200", "0.33", "1e3").
func Number(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NonNegativeInt aceita apenas inteiros ≥ 0 ("45" sim; "45.5" e "abc" não).
func NonNegativeInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FloatInRange aceita um decimal dentro de [lo, hi], extremos inclusive.
func FloatInRange(s string, lo, hi float64) (float64, bool) {
	v, ok := Number(s)
	if !ok || v < lo || v > hi {
		return 0, false
	}
	return v, true
}

// Currency normaliza a moeda: em branco vira def, o resto é upper-case.
func Currency(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return strings.ToUpper(s)
}

// Optional devolve o texto aparado; em branco é permitido e vira "".
func Optional(s string) string {
	return strings.TrimSpace(s)
}
