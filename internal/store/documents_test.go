package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/order"
)

func newTestDocuments(t *testing.T) *Documents {
	t.Helper()
	dir := t.TempDir()
	docs, err := NewDocuments(config.StorageConfig{
		OrdersPath:  filepath.Join(dir, "orders.json"),
		HistoryPath: filepath.Join(dir, "history.json"),
	})
	if err != nil {
		t.Fatalf("NewDocuments returned error: %v", err)
	}
	return docs
}

func TestDocuments_MissingFilesReadAsEmpty(t *testing.T) {
	docs := newTestDocuments(t)

	orders, err := docs.ReadOrders()
	if err != nil {
		t.Fatalf("ReadOrders returned error: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected empty orders, got %d", len(orders))
	}

	history, err := docs.ReadHistory()
	if err != nil {
		t.Fatalf("ReadHistory returned error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}
}

func TestDocuments_OrdersRoundTrip(t *testing.T) {
	docs := newTestDocuments(t)

	records := []order.Record{
		{ID: 1, Asset: "BTC", Amount: 100, Position: order.KindBuy, Platform: "binance", State: order.StateCompleted, LastAction: order.ActionBuy},
		{ID: 2, Asset: "ETH", Amount: 900, Position: order.KindStopLoss, Platform: "binance", State: order.StateInProgress},
	}
	if err := docs.WriteOrders(records); err != nil {
		t.Fatalf("WriteOrders returned error: %v", err)
	}

	got, err := docs.ReadOrders()
	if err != nil {
		t.Fatalf("ReadOrders returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
	if got[0] != records[0] || got[1] != records[1] {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestDocuments_OrdersDocumentShape(t *testing.T) {
	docs := newTestDocuments(t)

	if err := docs.WriteOrders([]order.Record{{ID: 1, Asset: "BTC", Position: order.KindSimulate, State: order.StateNew}}); err != nil {
		t.Fatalf("WriteOrders returned error: %v", err)
	}

	raw, err := os.ReadFile(docs.ordersPath)
	if err != nil {
		t.Fatalf("reading orders file: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("orders file is not a JSON object: %v", err)
	}
	if _, ok := doc["orders"]; !ok {
		t.Fatalf("orders file missing top-level \"orders\" key: %s", raw)
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(doc["orders"], &entries); err != nil {
		t.Fatalf("orders key is not an array: %v", err)
	}
	for _, key := range []string{"id", "asset", "amount", "position", "platform", "state", "last_action"} {
		if _, ok := entries[0][key]; !ok {
			t.Errorf("order entry missing %q key", key)
		}
	}
}

func TestDocuments_WriteNilOrdersKeepsArrayShape(t *testing.T) {
	docs := newTestDocuments(t)

	if err := docs.WriteOrders(nil); err != nil {
		t.Fatalf("WriteOrders returned error: %v", err)
	}

	raw, err := os.ReadFile(docs.ordersPath)
	if err != nil {
		t.Fatalf("reading orders file: %v", err)
	}

	var doc struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Orders == nil {
		t.Errorf("expected empty array, got null: %s", raw)
	}
}

func TestDocuments_PrependKeepsNewestFirst(t *testing.T) {
	docs := newTestDocuments(t)

	first := Transaction{Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), Message: "first"}
	second := Transaction{Timestamp: time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC), Message: "second"}

	if err := docs.Prepend(first); err != nil {
		t.Fatalf("Prepend returned error: %v", err)
	}
	if err := docs.Prepend(second); err != nil {
		t.Fatalf("Prepend returned error: %v", err)
	}

	history, err := docs.ReadHistory()
	if err != nil {
		t.Fatalf("ReadHistory returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Message != "second" || history[1].Message != "first" {
		t.Errorf("history not newest-first: %q, %q", history[0].Message, history[1].Message)
	}
}

func TestDocuments_PrependDefaultsTimestamp(t *testing.T) {
	docs := newTestDocuments(t)

	before := time.Now().UTC().Add(-time.Second)
	if err := docs.Prepend(Transaction{Message: "untimed"}); err != nil {
		t.Fatalf("Prepend returned error: %v", err)
	}

	history, err := docs.ReadHistory()
	if err != nil {
		t.Fatalf("ReadHistory returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0].Timestamp.Before(before) {
		t.Errorf("timestamp %v was not defaulted to now", history[0].Timestamp)
	}
}

func TestDocuments_HistoryUsesLogKey(t *testing.T) {
	docs := newTestDocuments(t)

	if err := docs.Prepend(Transaction{Message: "buy order succeeded"}); err != nil {
		t.Fatalf("Prepend returned error: %v", err)
	}

	raw, err := os.ReadFile(docs.historyPath)
	if err != nil {
		t.Fatalf("reading history file: %v", err)
	}

	var doc struct {
		Transactions []map[string]interface{} `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Transactions) != 1 {
		t.Fatalf("transactions len = %d, want 1", len(doc.Transactions))
	}
	if _, ok := doc.Transactions[0]["log"]; !ok {
		t.Errorf("transaction entry missing \"log\" key: %s", raw)
	}
}
