package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"nightowl-trader/internal/config"
)

// EventType 表示引擎事件类型。
type EventType string

const (
	EventEngineStarted  EventType = "engine_started"
	EventEngineStopped  EventType = "engine_stopped"
	EventOrderAdded     EventType = "order_added"
	EventOrderRemoved   EventType = "order_removed"
	EventOrderProcessed EventType = "order_processed"
	EventTransaction    EventType = "transaction"
	EventError          EventType = "error"
)

// Event 封装一条引擎事件。Payload 序列化为 JSON 存储。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Journal 把引擎事件持久化到 SQLite，作为 JSON 文档之外的
// 结构化审计流水。记录失败只降级为日志告警，不影响交易流程。
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open 依据配置打开事件库并初始化表结构。
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("journal: 创建目录 %q 失败: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("journal: 打开 SQLite 数据库失败: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: 设置 %q 失败: %w", pragma, err)
		}
	}

	j := &Journal{db: db, logger: logger}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS engine_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_engine_events_type ON engine_events(event_type);
`
	if _, err := j.db.Exec(stmt); err != nil {
		return fmt.Errorf("journal: 初始化表失败: %w", err)
	}
	return nil
}

// Close 关闭事件库。
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record 写入单个事件。
func (j *Journal) Record(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("journal: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO engine_events (event_type, payload, created_at) VALUES (?, ?, ?)`,
		string(event.Type), string(payload), event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal: 写入事件失败: %w", err)
	}
	return nil
}

func (j *Journal) record(ctx context.Context, t EventType, payload interface{}) {
	if j == nil {
		return
	}
	if err := j.Record(ctx, Event{Type: t, Timestamp: time.Now().UTC(), Payload: payload}); err != nil {
		j.logger.Warn("记录引擎事件失败", zap.String("event_type", string(t)), zap.Error(err))
	}
}

// EngineStarted 记录调度器启动。
func (j *Journal) EngineStarted(ctx context.Context, orderCount int) {
	j.record(ctx, EventEngineStarted, map[string]interface{}{"order_count": orderCount})
}

// EngineStopped 记录调度器停止。
func (j *Journal) EngineStopped(ctx context.Context) {
	j.record(ctx, EventEngineStopped, nil)
}

// OrderAdded 记录订单新增。
func (j *Journal) OrderAdded(ctx context.Context, id int, asset, kind, platform string) {
	j.record(ctx, EventOrderAdded, map[string]interface{}{
		"order_id": id,
		"asset":    asset,
		"position": kind,
		"platform": platform,
	})
}

// OrderRemoved 记录订单删除。
func (j *Journal) OrderRemoved(ctx context.Context, id int) {
	j.record(ctx, EventOrderRemoved, map[string]interface{}{"order_id": id})
}

// OrderProcessed 记录一次订单处理的落点状态。
func (j *Journal) OrderProcessed(ctx context.Context, id int, state string) {
	j.record(ctx, EventOrderProcessed, map[string]interface{}{
		"order_id": id,
		"state":    state,
	})
}

// Transaction 镜像一条交易日志消息。
func (j *Journal) Transaction(ctx context.Context, message string) {
	j.record(ctx, EventTransaction, map[string]interface{}{"message": message})
}

// Error 记录异常。
func (j *Journal) Error(ctx context.Context, message string, err error) {
	payload := map[string]interface{}{"message": message}
	if err != nil {
		payload["error"] = err.Error()
	}
	j.record(ctx, EventError, payload)
}

// List 返回某类事件最近的若干条，最新在前。
func (j *Journal) List(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT event_type, payload, created_at FROM engine_events WHERE event_type = ? ORDER BY id DESC LIMIT ?`,
		string(eventType), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: 查询事件失败: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			typ       string
			payload   string
			createdAt string
		)
		if err := rows.Scan(&typ, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("journal: 读取事件失败: %w", err)
		}

		event := Event{Type: EventType(typ)}
		if ts, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			event.Timestamp = ts
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
			event.Payload = decoded
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
