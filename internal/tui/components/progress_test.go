package components

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int
		done  int
		want  string
	}{
		{"empty pipeline", 0, 0, "0/0 stages"},
		{"partial", 7, 3, "3/7 stages"},
		{"complete", 7, 7, "7/7 stages"},
		{"overshoot keeps the real count", 7, 9, "9/7 stages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			view := NewProgress(tt.total).View(tt.done)
			require.Contains(t, view, tt.want)
			require.Greater(t, len(view), len(tt.want), "bar is rendered next to the label")
		})
	}
}
