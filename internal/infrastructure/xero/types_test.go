package xero

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "dotnet epoch millis",
			input: `"/Date(1539632904577+0000)/"`,
			want:  time.UnixMilli(1539632904577).UTC(),
		},
		{
			name:  "dotnet without offset",
			input: `"/Date(1539632904577)/"`,
			want:  time.UnixMilli(1539632904577).UTC(),
		},
		{
			name:  "iso 8601",
			input: `"2023-06-15T10:30:00Z"`,
			want:  time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: `"2023-06-15"`,
			want:  time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "null",
			input: `null`,
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w WireTime
			require.NoError(t, json.Unmarshal([]byte(tt.input), &w))
			assert.True(t, tt.want.Equal(w.Time), "got %s want %s", w.Time, tt.want)
		})
	}
}

func TestWireTimeUnmarshalRejectsGarbage(t *testing.T) {
	var w WireTime
	assert.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &w))
}
