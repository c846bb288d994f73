package util

import "testing"

func TestGas_StopsAfterBudget(t *testing.T) {
	gas := NewGas(3)
	for i := 0; i < 3; i++ {
		if gas.Stop() {
			t.Fatalf("step %d: expected budget to remain", i)
		}
	}
	if !gas.Stop() {
		t.Fatal("expected exhausted budget to stop")
	}
	if gas.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", gas.Remaining())
	}
}

func TestGas_NegativeBudgetIsEmpty(t *testing.T) {
	gas := NewGas(-5)
	if !gas.Stop() {
		t.Fatal("expected negative budget to stop immediately")
	}
}
