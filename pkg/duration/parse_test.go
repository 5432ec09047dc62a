package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "minutes", input: "30m", want: 30 * time.Minute},
		{name: "compound standard", input: "1h30m", want: 90 * time.Minute},
		{name: "seconds", input: "45s", want: 45 * time.Second},
		{name: "zero", input: "0", want: 0},
		{name: "day", input: "1d", want: Day},
		{name: "weeks and days", input: "2w3d", want: 2*Week + 3*Day},
		{name: "day and hours", input: "1d12h", want: 36 * time.Hour},
		{name: "spaces", input: " 5m ", want: 5 * time.Minute},
		{name: "empty", input: "", wantErr: true},
		{name: "no unit", input: "30", wantErr: true},
		{name: "unknown unit", input: "3x", wantErr: true},
		{name: "negative", input: "-5m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
