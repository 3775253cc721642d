package persistence

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/societysim/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "societysim.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func runFixture(t *testing.T, seed int64) *engine.Result {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Seed = seed
	cfg.StrategyMix = map[string]int{"cooperator": 5, "reciprocator": 2}
	cfg.Epochs = 3
	cfg.RoundsPerEpoch = 4

	res, err := engine.Run(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSaveAndLoadResultRoundtrip(t *testing.T) {
	db := openTestDB(t)
	res := runFixture(t, 42)

	runID, err := db.SaveResult(res)
	if err != nil {
		t.Fatal(err)
	}
	if runID == "" {
		t.Fatal("empty run id")
	}

	loaded, err := db.LoadResult(runID)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(loaded.Config, res.Config) {
		t.Error("config did not survive the roundtrip")
	}
	if len(loaded.Epochs) != len(res.Epochs) {
		t.Fatalf("loaded %d epochs, saved %d", len(loaded.Epochs), len(res.Epochs))
	}
	for i := range res.Epochs {
		if !reflect.DeepEqual(loaded.Epochs[i], res.Epochs[i]) {
			t.Errorf("epoch %d did not survive the roundtrip", i)
		}
	}
	if !reflect.DeepEqual(loaded.Events, res.Events) {
		t.Error("event log did not survive the roundtrip")
	}
	if !reflect.DeepEqual(loaded.FinalMetrics(), res.FinalMetrics()) {
		t.Error("final metrics did not survive the roundtrip")
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "societysim.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open with missing parent directories: %v", err)
	}
	defer db.Close()

	if _, err := db.SaveResult(runFixture(t, 3)); err != nil {
		t.Fatalf("save into freshly created directory: %v", err)
	}
}

func TestLoadResultUnknownRun(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadResult("no-such-run"); err == nil {
		t.Fatal("loading an unknown run must fail")
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)

	first, err := db.SaveResult(runFixture(t, 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.SaveResult(runFixture(t, 2))
	if err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Errorf("listing %v is missing a saved run", ids)
	}
	for _, r := range runs {
		if r.Epochs != 3 || r.Population != 7 {
			t.Errorf("run %s summary = %+v", r.ID, r)
		}
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d runs", len(limited))
	}
}

func TestRecentEventsKeepsEmissionOrder(t *testing.T) {
	db := openTestDB(t)
	res := runFixture(t, 42)
	if len(res.Events) < 2 {
		t.Skip("fixture produced too few events to order")
	}

	runID, err := db.SaveResult(res)
	if err != nil {
		t.Fatal(err)
	}

	events, err := db.RecentEvents(runID, len(res.Events))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(events, res.Events) {
		t.Error("full window should replay the event log in emission order")
	}

	tail, err := db.RecentEvents(runID, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := res.Events[len(res.Events)-2:]
	if !reflect.DeepEqual(tail, want) {
		t.Errorf("tail = %+v, want last two events %+v", tail, want)
	}
}
