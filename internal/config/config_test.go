package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
owner: "0xowner"
bank:
  cap: "1000000000000"
  withdraw_limit: "500000000000000000"
oracle:
  endpoint: http://oracle.local
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, ":8080", cfg.Server.Listen)
	require.Equal(t, "data/ledger_state.json", cfg.Bank.StateFile)
	require.Equal(t, "0 0 * * * *", cfg.Schedule.SnapshotCron)
	require.Equal(t, "1000000000000", cfg.Cap().String())
	require.Equal(t, "500000000000000000", cfg.WithdrawLimit().String())
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
owner: "0xowner"
bank:
  cap: "1"
  withdraw_limit: "1"
oracle:
  endpoint: http://oracle.local
`)
	t.Setenv("BANK_CAP", "77")
	t.Setenv("ORACLE_ENDPOINT", "http://other.local")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "77", cfg.Bank.Cap)
	require.Equal(t, "http://other.local", cfg.Oracle.Endpoint)
}

func TestValidateRejectsMissingOracle(t *testing.T) {
	path := writeConfig(t, `
owner: "0xowner"
bank:
  cap: "1"
  withdraw_limit: "1"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadAmounts(t *testing.T) {
	for _, tc := range []struct{ cap, limit string }{
		{"", "1"},
		{"-5", "1"},
		{"abc", "1"},
		{"1", "-2"},
	} {
		path := writeConfig(t, `
owner: "0xowner"
bank:
  cap: "`+tc.cap+`"
  withdraw_limit: "`+tc.limit+`"
oracle:
  static_price: "200000000000"
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Error(t, cfg.Validate(), "cap=%q limit=%q", tc.cap, tc.limit)
	}
}

func TestStaticPricePrecisionDefault(t *testing.T) {
	path := writeConfig(t, `
owner: "0xowner"
bank:
  cap: "1"
  withdraw_limit: "1"
oracle:
  static_price: "200000000000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint32(8), cfg.Oracle.StaticPrecision)
}
