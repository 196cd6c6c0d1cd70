package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, "api_keys.db", cfg.DataPath)
	require.Equal(t, 5000, cfg.MaxRosterRows)
	require.Equal(t, "join_date", cfg.Columns.JoinDate)
	require.Equal(t, []string{"age", "participation"}, cfg.Columns.Numeric)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JOIN_DATE_COLUMN", "가입일")
	t.Setenv("CATEGORICAL_COLUMNS", "성별,지역,성향")
	t.Setenv("MAX_ROSTER_ROWS", "10")

	cfg, err := Parse()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "가입일", cfg.Columns.JoinDate)
	require.Equal(t, []string{"성별", "지역", "성향"}, cfg.Columns.Categorical)
	require.Equal(t, 10, cfg.MaxRosterRows)
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("MAX_ROSTER_ROWS", "many")

	_, err := Parse()
	require.Error(t, err)
}
