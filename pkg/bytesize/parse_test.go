package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bytes", input: "512", want: 512},
		{name: "bytes with unit", input: "512b", want: 512},
		{name: "kilobytes", input: "100KB", want: 100 * 1024},
		{name: "megabytes", input: "512MB", want: 512 * 1024 * 1024},
		{name: "gigabytes", input: "1GB", want: 1024 * 1024 * 1024},
		{name: "decimal", input: "1.5GB", want: int64(1.5 * 1024 * 1024 * 1024)},
		{name: "lowercase short", input: "512m", want: 512 * 1024 * 1024},
		{name: "surrounding spaces", input: "  2MB ", want: 2 * 1024 * 1024},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "lots", wantErr: true},
		{name: "negative", input: "-1MB", wantErr: true},
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

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
	assert.Equal(t, int64(1024), MustParse("1KB"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "512MiB", Format(512*1024*1024))
	assert.Equal(t, "1KiB", Format(1024))
}
