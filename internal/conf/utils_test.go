package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStorageSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "empty means unbounded", input: "", want: 0},
		{name: "gigabytes", input: "500GB", want: 500_000_000_000},
		{name: "terabytes", input: "1TB", want: 1_000_000_000_000},
		{name: "fractional terabytes", input: "1.5TB", want: 1_500_000_000_000},
		{name: "megabytes lowercase", input: "250mb", want: 250_000_000},
		{name: "kilobytes", input: "10KB", want: 10_000},
		{name: "bare bytes", input: "4096", want: 4096},
		{name: "suffix with space", input: "2 GB", want: 2_000_000_000},
		{name: "garbage", input: "lots", wantErr: true},
		{name: "negative", input: "-5GB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStorageSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRetentionPeriod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "empty means keep forever", input: "", want: 0},
		{name: "hours", input: "24h", want: 24},
		{name: "days", input: "30d", want: 720},
		{name: "weeks", input: "2w", want: 336},
		{name: "months", input: "1m", want: 720},
		{name: "years", input: "1y", want: 8760},
		{name: "bare number is days", input: "7", want: 168},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "negative", input: "-3d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRetentionPeriod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateSettings(t *testing.T) {
	valid := func() *Settings {
		s := &Settings{}
		s.Storage.Path = "recordings/"
		s.Storage.RetentionDays = 30
		s.Storage.CleanupIntervalHours = 1
		s.Recording.SegmentDuration = 300
		s.Recording.Transport = "tcp"
		s.Recording.Format = "mkv"
		s.Supervisor.PollInterval = 30
		s.Pools.StatsInterval = 60
		s.Output.SQLite.Enabled = true
		return s
	}

	t.Run("valid settings pass", func(t *testing.T) {
		require.NoError(t, ValidateSettings(valid()))
	})

	t.Run("empty storage path", func(t *testing.T) {
		s := valid()
		s.Storage.Path = ""
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("bad max storage", func(t *testing.T) {
		s := valid()
		s.Storage.MaxStorage = "plenty"
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("bad transport", func(t *testing.T) {
		s := valid()
		s.Recording.Transport = "multicast"
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("zero segment duration", func(t *testing.T) {
		s := valid()
		s.Recording.SegmentDuration = 0
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("both outputs enabled", func(t *testing.T) {
		s := valid()
		s.Output.MySQL.Enabled = true
		assert.Error(t, ValidateSettings(s))
	})

	t.Run("no output enabled", func(t *testing.T) {
		s := valid()
		s.Output.SQLite.Enabled = false
		assert.Error(t, ValidateSettings(s))
	})
}
