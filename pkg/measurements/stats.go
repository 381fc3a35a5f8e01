package measurements

import "math"

// Mean возвращает среднее арифметическое. Пустой срез — 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev возвращает стандартное отклонение (по населению).
// Меньше двух значений — 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// DistinctRatio возвращает долю уникальных значений: 1.0 — все
// различны, 1/n — все одинаковы. Полезна для оценки разнообразия
// ответов модели.
func DistinctRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return float64(len(seen)) / float64(len(values))
}
