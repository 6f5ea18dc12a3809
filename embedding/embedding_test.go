package embedding

import (
	"errors"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Normalize() = %v, want [0.6 0.8]", v)
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Normalize(zero) = %v", zero)
	}
}

func TestBatches(t *testing.T) {
	var got [][2]int
	err := Batches(5, 2, func(start, end int) error {
		got = append(got, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if len(got) != len(want) {
		t.Fatalf("Batches() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("batch %d = %v, want %v", i, got[i], want[i])
		}
	}

	stop := errors.New("stop")
	calls := 0
	err = Batches(5, 1, func(int, int) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Batches() error = %v after %d calls", err, calls)
	}
}

func TestApply(t *testing.T) {
	defaults := EmbeddingOptions{Model: "base", BatchSize: 10}
	got := Apply(defaults, WithModel(""), WithBatchSize(3), WithNormalization(true))

	if got.Model != "base" || got.BatchSize != 3 || !got.Normalize {
		t.Errorf("Apply() = %+v", got)
	}
	if defaults.BatchSize != 10 {
		t.Error("Apply() modified defaults")
	}
}
