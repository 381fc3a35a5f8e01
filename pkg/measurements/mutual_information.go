package measurements

import (
	"fmt"
	"math"
)

// MutualInformation вычисляет взаимную информацию двух дискретных
// признаков в битах.
//
// Вход — парные наблюдения: xs[i] и ys[i] относятся к одному объекту.
// Нулевой результат означает независимость признаков; максимум —
// min(H(X), H(Y)).
func MutualInformation(xs, ys []string) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("paired observations required: len(xs)=%d, len(ys)=%d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("empty observations")
	}

	n := float64(len(xs))
	countX := make(map[string]float64)
	countY := make(map[string]float64)
	countXY := make(map[[2]string]float64)

	for i := range xs {
		countX[xs[i]]++
		countY[ys[i]]++
		countXY[[2]string{xs[i], ys[i]}]++
	}

	// MI = Σ p(x,y) · log2( p(x,y) / (p(x)·p(y)) )
	mi := 0.0
	for pair, cXY := range countXY {
		pXY := cXY / n
		pX := countX[pair[0]] / n
		pY := countY[pair[1]] / n
		mi += pXY * math.Log2(pXY/(pX*pY))
	}

	// Отрицательный ноль из-за ошибок округления
	if mi < 0 {
		mi = 0
	}
	return mi, nil
}

// Entropy вычисляет энтропию Шеннона дискретного признака в битах.
func Entropy(xs []string) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("empty observations")
	}

	n := float64(len(xs))
	counts := make(map[string]float64)
	for _, x := range xs {
		counts[x]++
	}

	h := 0.0
	for _, c := range counts {
		p := c / n
		h -= p * math.Log2(p)
	}
	return h, nil
}
