package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDayRange(t *testing.T) {
	from, to, err := parseDayRange("2024-05-01", "2024-05-10")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), to)

	from, to, err = parseDayRange("2024-05-10", "2024-05-10")
	require.NoError(t, err)
	require.True(t, from.Equal(to))
}

func TestParseDayRange_Errors(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		msg      string
	}{
		{name: "missing from", to: "2024-05-10", msg: "--from and --to"},
		{name: "missing to", from: "2024-05-10", msg: "--from and --to"},
		{name: "bad from", from: "10/05/2024", to: "2024-05-10", msg: "invalid --from"},
		{name: "bad to", from: "2024-05-10", to: "2024-13-01", msg: "invalid --to"},
		{name: "reversed", from: "2024-05-10", to: "2024-05-01", msg: "must not be after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseDayRange(tt.from, tt.to)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "refresh", "backfill", "convert", "volatility", "migrate"} {
		require.Contains(t, names, want)
	}
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestConvertCommand_RequiresFlags(t *testing.T) {
	for _, name := range []string{"amount", "from", "to", "date"} {
		flag := convertCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		require.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}
