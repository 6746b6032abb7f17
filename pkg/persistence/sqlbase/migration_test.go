package sqlbase

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationManager_LatestVersion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		migrations map[int]string
		want       int
	}{
		{name: "no migrations", migrations: map[int]string{}, want: 0},
		{name: "single migration", migrations: map[int]string{1: "SELECT 1"}, want: 1},
		{name: "gaps use highest", migrations: map[int]string{1: "a", 4: "b", 2: "c"}, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMigrationManager(logger, nil, tt.migrations)
			assert.Equal(t, tt.want, m.LatestVersion())
		})
	}
}
