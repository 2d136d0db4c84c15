package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"testing"

	apperrors "github.com/target/zenithflow/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.Conflict("dup"), want: "conflict"},
		{name: "wrapped app error", err: fmt.Errorf("reserve: %w", apperrors.New(apperrors.ErrCodeCapacity, "full")), want: "capacity"},
		{name: "plain sentinel", err: goerrors.New("boom"), want: "errors_errorstring"},
		{name: "context", err: fmt.Errorf("wait: %w", context.DeadlineExceeded), want: "context_deadlineexceedederror"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
