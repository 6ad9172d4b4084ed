package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/exchange"
	"nightowl-trader/internal/order"
	"nightowl-trader/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Binance: config.BinanceConfig{
			BaseURL:     "https://api.binance.com",
			RecvWindow:  10000,
			HTTPTimeout: 5 * time.Second,
		},
		Signal: config.SignalConfig{
			Source:     "sma",
			FastPeriod: 7,
			SlowPeriod: 25,
		},
		Scheduler: config.SchedulerConfig{
			LoopInterval:      time.Hour,
			ProcessTimeout:    30 * time.Second,
			ChartInterval:     "1d",
			AutopilotInterval: "4h",
			CandleLimit:       500,
		},
	}
}

func newTestApp(t *testing.T) (*App, *store.Documents) {
	t.Helper()
	dir := t.TempDir()
	docs, err := store.NewDocuments(config.StorageConfig{
		OrdersPath:  filepath.Join(dir, "orders.json"),
		HistoryPath: filepath.Join(dir, "history.json"),
	})
	if err != nil {
		t.Fatalf("NewDocuments returned error: %v", err)
	}

	a, err := New(testConfig(), zap.NewNop(), docs, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return a, docs
}

func TestNew_RejectsUnknownSignalSource(t *testing.T) {
	cfg := testConfig()
	cfg.Signal.Source = "astrology"

	dir := t.TempDir()
	docs, err := store.NewDocuments(config.StorageConfig{
		OrdersPath:  filepath.Join(dir, "orders.json"),
		HistoryPath: filepath.Join(dir, "history.json"),
	})
	if err != nil {
		t.Fatalf("NewDocuments returned error: %v", err)
	}

	if _, err := New(cfg, zap.NewNop(), docs, nil, nil); err == nil {
		t.Fatal("expected error for unknown signal source")
	}
}

func TestAddOrder_RejectsUnknownPlatform(t *testing.T) {
	a, _ := newTestApp(t)

	_, err := a.AddOrder(context.Background(), order.Record{
		Asset:    "BTC",
		Amount:   100,
		Position: order.KindBuy,
		Platform: "kraken",
	})
	if !errors.Is(err, exchange.ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
	if len(a.Orders()) != 0 {
		t.Errorf("rejected order must not be inserted, got %d orders", len(a.Orders()))
	}
}

func TestAddOrder_AssignsIDAndPersists(t *testing.T) {
	a, docs := newTestApp(t)

	rec, err := a.AddOrder(context.Background(), order.Record{
		Asset:    "BTC",
		Amount:   100,
		Position: order.KindBuy,
		Platform: PlatformBinance,
	})
	if err != nil {
		t.Fatalf("AddOrder returned error: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("id = %d, want 1", rec.ID)
	}
	if rec.State != order.StateNew {
		t.Errorf("state = %q, want %q", rec.State, order.StateNew)
	}

	persisted, err := docs.ReadOrders()
	if err != nil {
		t.Fatalf("ReadOrders returned error: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != 1 {
		t.Errorf("unexpected persisted records: %+v", persisted)
	}

	history, err := a.History()
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected one transaction entry, got %d", len(history))
	}
}

func TestDeleteOrder(t *testing.T) {
	a, docs := newTestApp(t)

	rec, err := a.AddOrder(context.Background(), order.Record{
		Asset:    "BTC",
		Amount:   100,
		Position: order.KindSimulate,
		Platform: PlatformBinance,
	})
	if err != nil {
		t.Fatalf("AddOrder returned error: %v", err)
	}

	if a.DeleteOrder(context.Background(), 999) {
		t.Error("deleting unknown id reported success")
	}
	if !a.DeleteOrder(context.Background(), rec.ID) {
		t.Fatal("DeleteOrder reported no deletion")
	}

	persisted, err := docs.ReadOrders()
	if err != nil {
		t.Fatalf("ReadOrders returned error: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("expected empty persisted set, got %+v", persisted)
	}
}

func TestLoadOrders_ToleratesUnknownPlatformAndSkipsUnknownKind(t *testing.T) {
	a, docs := newTestApp(t)

	seed := []order.Record{
		{ID: 1, Asset: "BTC", Amount: 100, Position: order.KindBuy, Platform: PlatformBinance, State: order.StateNew},
		{ID: 2, Asset: "ETH", Amount: 50, Position: order.KindSell, Platform: "kraken", State: order.StateNew},
		{ID: 3, Asset: "SOL", Amount: 10, Position: "hodl", Platform: PlatformBinance, State: order.StateNew},
	}
	if err := docs.WriteOrders(seed); err != nil {
		t.Fatalf("WriteOrders returned error: %v", err)
	}

	if err := a.LoadOrders(context.Background()); err != nil {
		t.Fatalf("LoadOrders returned error: %v", err)
	}

	// The unknown platform is tolerated at load so the rest of the
	// collection still comes back; only the corrupt kind is skipped.
	records := a.Orders()
	if len(records) != 2 {
		t.Fatalf("loaded %d orders, want 2: %+v", len(records), records)
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Errorf("unexpected loaded ids: %+v", records)
	}
}

func TestChartData_UsesChartIntervalAndCandleLimit(t *testing.T) {
	var gotInterval, gotLimit atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		gotInterval.Store(r.URL.Query().Get("interval"))
		gotLimit.Store(r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[[1700000000000, "1", "2", "0.5", "1.5", "10", 0, "0", 0, "0", "0", "0"]]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.Binance.BaseURL = srv.URL
	cfg.Scheduler.ChartInterval = "1d"
	cfg.Scheduler.CandleLimit = 321

	dir := t.TempDir()
	docs, err := store.NewDocuments(config.StorageConfig{
		OrdersPath:  filepath.Join(dir, "orders.json"),
		HistoryPath: filepath.Join(dir, "history.json"),
	})
	if err != nil {
		t.Fatalf("NewDocuments returned error: %v", err)
	}
	a, err := New(cfg, zap.NewNop(), docs, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	candles, err := a.ChartData(context.Background(), PlatformBinance, "BTC")
	if err != nil {
		t.Fatalf("ChartData returned error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected 1 candle, got %d", len(candles))
	}
	if got, _ := gotInterval.Load().(string); got != "1d" {
		t.Errorf("interval = %q, want 1d", got)
	}
	if got, _ := gotLimit.Load().(string); got != "321" {
		t.Errorf("limit = %q, want 321", got)
	}

	if _, err := a.ChartData(context.Background(), "kraken", "BTC"); !errors.Is(err, exchange.ErrUnknownPlatform) {
		t.Fatalf("expected ErrUnknownPlatform, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	a, _ := newTestApp(t)

	if !a.Start(context.Background()) {
		t.Fatal("first Start returned false")
	}
	if a.Start(context.Background()) {
		t.Error("second Start must be a no-op")
	}
	if !a.Running() {
		t.Error("Running() = false after Start")
	}

	a.Stop()
	if a.Running() {
		t.Error("Running() = true after Stop")
	}
}
