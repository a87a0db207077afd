package rng

import (
	"math"
	"testing"
)

func TestStream_Reproducibility(t *testing.T) {
	// 相同 (seedBase, pathIndex) 必须逐位一致
	s1 := New(42, 7)
	s2 := New(42, 7)

	for i := 0; i < 1000; i++ {
		a, b := s1.Uint64(), s2.Uint64()
		if a != b {
			t.Fatalf("sequence diverged at draw %d: %d vs %d", i, a, b)
		}
	}
}

func TestStream_DistinctPaths(t *testing.T) {
	s1 := New(42, 0)
	s2 := New(42, 1)

	same := 0
	for i := 0; i < 100; i++ {
		if s1.Uint64() == s2.Uint64() {
			same++
		}
	}
	if same > 0 {
		t.Fatalf("paths 0 and 1 collided %d times in 100 draws", same)
	}
}

func TestStream_AdjacentPathsNotShiftedCopies(t *testing.T) {
	// 相邻路径的流不允许是同一序列的平移副本:
	// 路径 i 先丢弃 k 个数后，剩余序列与路径 i+1 不得逐项重合
	for shift := 1; shift <= 8; shift++ {
		a := New(42, 3)
		b := New(42, 4)
		for i := 0; i < shift; i++ {
			a.Uint64()
		}

		same := 0
		for i := 0; i < 128; i++ {
			if a.Uint64() == b.Uint64() {
				same++
			}
		}
		if same > 0 {
			t.Fatalf("path 4 overlaps path 3 shifted by %d: %d matches in 128 draws", shift, same)
		}
	}
}

func TestStream_NormalMoments(t *testing.T) {
	// 正态性检查: 均值≈0，方差≈1
	s := New(42, 0)
	const n = 100000

	var sum, sumSq float64
	for i := 0; i < n; i++ {
		z := s.Normal()
		sum += z
		sumSq += z * z
	}

	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean) > 0.02 {
		t.Fatalf("normal mean too far from 0: %v", mean)
	}
	if math.Abs(variance-1.0) > 0.02 {
		t.Fatalf("normal variance too far from 1: %v", variance)
	}
}

func TestStream_PoissonMean(t *testing.T) {
	// λ=0.5 的泊松均值应接近 0.5
	s := New(42, 0)
	const n = 100000

	total := 0
	for i := 0; i < n; i++ {
		total += s.Poisson(0.5)
	}

	mean := float64(total) / n
	if math.Abs(mean-0.5) > 0.02 {
		t.Fatalf("poisson mean mismatch: got=%v want≈0.5", mean)
	}
}

func TestStream_PoissonZeroMean(t *testing.T) {
	s := New(1, 0)
	if got := s.Poisson(0); got != 0 {
		t.Fatalf("poisson(0) should be 0, got %d", got)
	}
}
