package order

import "sync"

// Builder 依据补齐了编号的记录构造订单，Registry 在持锁状态下调用它，
// 保证编号分配与插入是一个原子步骤。
type Builder func(rec Record) (Order, error)

// Registry 是线程安全的有序订单集合。编号分配、插入与删除都在同
// 一把互斥锁下进行；快照是切片拷贝，可在集合继续变化时安全遍历。
type Registry struct {
	mu     sync.Mutex
	orders []Order
}

// NewRegistry 创建空集合。
func NewRegistry() *Registry {
	return &Registry{}
}

// Load 以给定订单替换集合内容，用于启动时从持久化文档恢复。
func (r *Registry) Load(orders []Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders[:0:0], orders...)
}

// Add 分配下一个编号（现存最大编号加一，集合为空时从1起），
// 构造订单并追加到末尾。
func (r *Registry) Add(template Record, build Builder) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	template.ID = r.maxIDLocked() + 1
	o, err := build(template)
	if err != nil {
		return nil, err
	}
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *Registry) maxIDLocked() int {
	max := 0
	for _, o := range r.orders {
		if o.ID() > max {
			max = o.ID()
		}
	}
	return max
}

// Remove 按编号删除订单，返回是否确有删除；编号不存在时安全无操作。
func (r *Registry) Remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.orders {
		if o.ID() == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Get 按编号查找订单。
func (r *Registry) Get(id int) (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.orders {
		if o.ID() == id {
			return o, true
		}
	}
	return nil, false
}

// Snapshot 返回当前订单序列的一致性拷贝。调度器先取快照再逐个
// 处理，处理期间不持有集合锁，避免网络调用阻塞用户侧增删。
func (r *Registry) Snapshot() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Order(nil), r.orders...)
}

// Records 返回全部订单的持久化快照，顺序与集合一致。
func (r *Registry) Records() []Record {
	r.mu.Lock()
	orders := append([]Order(nil), r.orders...)
	r.mu.Unlock()

	records := make([]Record, 0, len(orders))
	for _, o := range orders {
		records = append(records, o.Record())
	}
	return records
}

// Len 返回集合大小。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
