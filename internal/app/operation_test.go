package app

import (
	"errors"
	"testing"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{name: "with parameters", operation: "words", parameters: "/dump --num 20"},
		{name: "empty parameters", operation: "cache clear", parameters: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("run-1", tt.operation, tt.parameters)

			if op.Name != tt.operation {
				t.Errorf("Name = %q, want %q", op.Name, tt.operation)
			}
			if op.Parameters != tt.parameters {
				t.Errorf("Parameters = %q, want %q", op.Parameters, tt.parameters)
			}
			if op.Status != StatusRunning {
				t.Errorf("Status = %q, want %q", op.Status, StatusRunning)
			}
			if op.Persisted() {
				t.Error("new operation reports Persisted() = true")
			}
		})
	}
}

func TestOperation_Done(t *testing.T) {
	tests := []struct {
		name string
		errs []error
		want string
	}{
		{name: "never reported", errs: nil, want: StatusSuccess},
		{name: "success", errs: []error{nil}, want: StatusSuccess},
		{name: "failure", errs: []error{errors.New("boom")}, want: StatusError},
		{name: "failure is sticky", errs: []error{errors.New("boom"), nil}, want: StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation("run-1", "heatmap", "")
			for _, err := range tt.errs {
				op.Done(err)
			}
			if got := op.finalStatus(); got != tt.want {
				t.Errorf("finalStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
