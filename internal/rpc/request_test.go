package rpc

import "testing"

func TestDecodeKwargsAppliesDefaults(t *testing.T) {
	k, err := DecodeKwargs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Days != 7 || k.MaxIterations != 3 || k.QualityThreshold != 0.7 || k.Language != "zh-CN" {
		t.Errorf("unexpected defaults: %+v", k)
	}
}

func TestDecodeKwargsClampsOutOfBoundValues(t *testing.T) {
	k, err := DecodeKwargs(map[string]interface{}{
		"days":              1000,
		"max_iterations":    50,
		"quality_threshold": 3.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Days != 365 {
		t.Errorf("expected days clamped to 365, got %d", k.Days)
	}
	if k.MaxIterations != 10 {
		t.Errorf("expected max_iterations clamped to 10, got %d", k.MaxIterations)
	}
	if k.QualityThreshold != 1 {
		t.Errorf("expected quality_threshold clamped to 1, got %f", k.QualityThreshold)
	}
}

func TestDecodeKwargsTolerantOfStringNumbers(t *testing.T) {
	k, err := DecodeKwargs(map[string]interface{}{
		"days":     "14",
		"companies": []interface{}{"Acme", "Globex"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k.Days != 14 {
		t.Errorf("expected days=14 from string coercion, got %d", k.Days)
	}
	if len(k.Companies) != 2 {
		t.Errorf("expected 2 companies, got %v", k.Companies)
	}
}
