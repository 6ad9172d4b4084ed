package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nightowl-trader/internal/config"
	"nightowl-trader/internal/order"
)

// Transaction 是交易日志中的一条不可变记录。
type Transaction struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"log"`
}

type ordersDocument struct {
	Orders []order.Record `json:"orders"`
}

type historyDocument struct {
	Transactions []Transaction `json:"transactions"`
}

// Documents 管理两份有序 JSON 文档：订单集合与只增的交易历史
// （最新在前）。写入走临时文件加改名，避免部分写。
type Documents struct {
	mu          sync.Mutex
	ordersPath  string
	historyPath string
}

// NewDocuments 依据配置创建文档存储并确保目录存在。
func NewDocuments(cfg config.StorageConfig) (*Documents, error) {
	if cfg.OrdersPath == "" || cfg.HistoryPath == "" {
		return nil, fmt.Errorf("store: 文档路径不能为空")
	}
	for _, path := range []string{cfg.OrdersPath, cfg.HistoryPath} {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}
	return &Documents{
		ordersPath:  cfg.OrdersPath,
		historyPath: cfg.HistoryPath,
	}, nil
}

// ReadOrders 读取订单文档。文件不存在视为空集合。
func (d *Documents) ReadOrders() ([]order.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var doc ordersDocument
	if err := readJSON(d.ordersPath, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: 读取订单文档失败: %w", err)
	}
	return doc.Orders, nil
}

// WriteOrders 原子地写出完整订单集合，没有部分或批量写。
func (d *Documents) WriteOrders(records []order.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if records == nil {
		records = []order.Record{}
	}
	if err := writeJSON(d.ordersPath, ordersDocument{Orders: records}); err != nil {
		return fmt.Errorf("store: 写入订单文档失败: %w", err)
	}
	return nil
}

// ReadHistory 读取交易历史（最新在前）。文件不存在视为空历史。
func (d *Documents) ReadHistory() ([]Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var doc historyDocument
	if err := readJSON(d.historyPath, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: 读取历史文档失败: %w", err)
	}
	return doc.Transactions, nil
}

// Prepend 把一条交易记录插到历史最前端。历史无界，不做轮转。
func (d *Documents) Prepend(tx Transaction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var doc historyDocument
	if err := readJSON(d.historyPath, &doc); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: 读取历史文档失败: %w", err)
	}

	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	doc.Transactions = append([]Transaction{tx}, doc.Transactions...)
	if err := writeJSON(d.historyPath, doc); err != nil {
		return fmt.Errorf("store: 写入历史文档失败: %w", err)
	}
	return nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func writeJSON(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("store: 创建目录 %q 失败: %w", path, err)
	}
	return nil
}
