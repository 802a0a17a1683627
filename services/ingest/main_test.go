package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/opendata"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/db"
)

const testExport = "UID wynajmu,Numer roweru,Data wynajmu,Data zwrotu,Stacja wynajmu,Stacja zwrotu,Czas trwania\n" +
	"1001,650123,2023-05-14 08:00:00,2023-05-14 08:20:00,Rynek,Plac Grunwaldzki,20\n" +
	"1002,650124,2023-05-14 09:00:00,2023-05-14 09:30:00,Rynek,Poza stacją,30\n" +
	"1003,650125,2023-05-14 10:00:00,2023-05-14 10:05:00,#Serwis,Rynek,5\n"

const testStations = "station_name,lat,lon\nRynek,51.11,17.032\nPlac Grunwaldzki,51.1125,17.0595\n"

// setupEnv points the job at temporary files and returns the output directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	stationsFile := filepath.Join(dir, "bike_stations.csv")
	require.NoError(t, os.WriteFile(stationsFile, []byte(testStations), 0o644))

	for _, key := range []string{"DATABASE_URL", "SOURCE_URL", "DISTANCE_METHOD", "MQTT_BROKER", "DRY_RUN", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}
	t.Setenv("STATIONS_FILE", stationsFile)
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")

	resetFlags(rootCmd)
	return filepath.Join(dir, "out")
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newPortal(t *testing.T, fileName string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><a class="heading" href="/files/%s" title="%s">latest</a></body></html>`, fileName, fileName)
	})
	mux.HandleFunc("/files/"+fileName, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testExport)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func todaysFileName() string {
	now := time.Now().UTC()
	return fmt.Sprintf("Historia_przejazdow_%d-%d-%d.csv", now.Year(), int(now.Month()), now.Day())
}

func TestTransformCommand(t *testing.T) {
	outDir := setupEnv(t)
	export := filepath.Join(t.TempDir(), "Historia_przejazdow_2023-5-14.csv")
	require.NoError(t, os.WriteFile(export, []byte(testExport), 0o644))

	out, err := execute(t, "transform", export)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rides written")
	assert.Contains(t, out, "1 dropped")

	cleaned, err := os.ReadFile(filepath.Join(outDir, "Historia_przejazdow_2023-5-14.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(cleaned)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "uid,bike_number,start_time"))
	assert.True(t, strings.HasPrefix(lines[2], "1002,650124,2023-05-14 09:00:00"))
}

func TestTransformCommandOutDirFlag(t *testing.T) {
	setupEnv(t)
	export := filepath.Join(t.TempDir(), "rides.csv")
	require.NoError(t, os.WriteFile(export, []byte(testExport), 0o644))
	flagDir := filepath.Join(t.TempDir(), "flagged")

	_, err := execute(t, "transform", export, "--out-dir", flagDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(flagDir, "rides.csv"))
}

func TestFetchDryRun(t *testing.T) {
	outDir := setupEnv(t)
	name := todaysFileName()
	t.Setenv("SOURCE_URL", newPortal(t, name).URL+"/history")

	_, err := execute(t, "fetch", "--dry-run")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, name))
}

func TestFetchRequiresDatabase(t *testing.T) {
	setupEnv(t)
	t.Setenv("SOURCE_URL", newPortal(t, todaysFileName()).URL+"/history")

	_, err := execute(t, "fetch")
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestFetchStaleSource(t *testing.T) {
	setupEnv(t)
	t.Setenv("SOURCE_URL", newPortal(t, "Historia_przejazdow_2023-5-14.csv").URL+"/history")

	_, err := execute(t, "fetch", "--dry-run")
	assert.ErrorIs(t, err, opendata.ErrStaleSource)

	resetFlags(rootCmd)
	_, err = execute(t, "fetch", "--dry-run", "--allow-stale")
	assert.NoError(t, err)
}

func TestFetchAppendsToWarehouse(t *testing.T) {
	setupEnv(t)
	t.Setenv("SOURCE_URL", newPortal(t, todaysFileName()).URL+"/history")
	dbPath := filepath.Join(t.TempDir(), "rides.db")

	_, err := execute(t, "fetch", "--db", "sqlite://"+dbPath)
	require.NoError(t, err)

	// A second run skips rides already stored.
	resetFlags(rootCmd)
	_, err = execute(t, "fetch", "--db", "sqlite://"+dbPath)
	require.NoError(t, err)

	store, err := db.NewSQLite(dbPath)
	require.NoError(t, err)
	defer store.Close()

	latest, err := store.LatestAvailableDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2023-05-14", latest.Format(time.DateOnly))

	start, end := time.Date(2023, 5, 14, 0, 0, 0, 0, time.UTC), time.Date(2023, 5, 14, 23, 59, 59, 0, time.UTC)
	rides, err := store.FetchRides(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	require.NotNil(t, rides[0].Distance)
	assert.InDelta(t, 1.94, *rides[0].Distance, 0.1)
}
