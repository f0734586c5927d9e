package cart

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"

	"thriftshop/internal/domain"
)

// Snapshot is the persisted cart form: the line sequence in insertion order and
// the derived total. The total is recomputed on every mutation and always
// equals the sum of unitPrice*quantity over the lines.
type Snapshot struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalCents int64             `json:"total"`
}

// Empty reports whether the snapshot holds no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Storage is the durable backing for a cart. Load returns nil bytes when no
// snapshot exists for the owner.
type Storage interface {
	Save(ctx context.Context, owner string, snap Snapshot) error
	Load(ctx context.Context, owner string) ([]byte, error)
	Delete(ctx context.Context, owner string) error
}

// Store is the single-writer cart for one owner. Mutations update the
// in-memory state and synchronously persist the full snapshot before
// returning; readers get deep copies.
type Store struct {
	mu      sync.Mutex
	owner   string
	lines   []domain.CartLine
	total   int64
	storage Storage
	logger  *log.Logger
}

// Open restores the owner's cart from storage. Absent or unparseable
// persisted state yields an empty cart, never an error.
func Open(ctx context.Context, owner string, storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{owner: owner, storage: storage, logger: logger}
	raw, err := storage.Load(ctx, owner)
	if err != nil {
		s.logger.Printf("cart: load owner=%s error=%v, starting empty", owner, err)
		return s
	}
	if len(raw) == 0 {
		return s
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logger.Printf("cart: corrupt snapshot owner=%s, starting empty", owner)
		return s
	}
	s.lines = snap.Lines
	s.recompute()
	return s
}

// AddItem merges the item into an existing line for the same variant,
// incrementing its quantity by one, or appends a new line with quantity one.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.Key()
	for i := range s.lines {
		if s.lines[i].Key() == key {
			s.lines[i].Quantity++
			s.recompute()
			return s.persist(ctx)
		}
	}
	s.lines = append(s.lines, domain.CartLine{
		LineID:         key.Encode(),
		ProductID:      item.ProductID,
		Name:           item.Name,
		UnitPriceCents: item.UnitPriceCents,
		Image:          item.Image,
		SelectedSize:   item.SelectedSize,
		SelectedColor:  item.SelectedColor,
		Quantity:       1,
	})
	s.recompute()
	return s.persist(ctx)
}

// RemoveItem deletes the line with the given ID. A missing line is a no-op,
// not an error.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.LineID != lineID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	s.recompute()
	return s.persist(ctx)
}

// UpdateQuantity sets the line's quantity, clamped so it never drops below
// one; removal goes through RemoveItem, not a zero quantity.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		quantity = 1
	}
	for i := range s.lines {
		if s.lines[i].LineID == lineID {
			s.lines[i].Quantity = quantity
			s.recompute()
			break
		}
	}
	return s.persist(ctx)
}

// Clear empties the cart and erases the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.total = 0
	return s.storage.Delete(ctx, s.owner)
}

// Snapshot returns a deep copy of the current cart state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{Lines: lines, TotalCents: s.total}
}

func (s *Store) recompute() {
	var total int64
	for _, l := range s.lines {
		total += l.UnitPriceCents * int64(l.Quantity)
	}
	s.total = total
}

func (s *Store) persist(ctx context.Context) error {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return s.storage.Save(ctx, s.owner, Snapshot{Lines: lines, TotalCents: s.total})
}

// defaultMaxStores bounds the per-owner store cache. Evicted carts reopen from
// storage on the next access.
const defaultMaxStores = 1024

// Manager hands out one Store per owner, restoring from storage on first use.
type Manager struct {
	mu        sync.Mutex
	storage   Storage
	logger    *log.Logger
	stores    map[string]*Store
	maxStores int
}

func NewManager(storage Storage, logger *log.Logger) *Manager {
	return &Manager{
		storage:   storage,
		logger:    logger,
		stores:    make(map[string]*Store),
		maxStores: defaultMaxStores,
	}
}

// ForOwner returns the owner's cart store, opening it on first access. When
// the cache is full an arbitrary idle entry is dropped first; its state lives
// in storage, so the drop only costs a reload.
func (m *Manager) ForOwner(ctx context.Context, owner string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[owner]; ok {
		return s
	}
	for len(m.stores) >= m.maxStores {
		for k := range m.stores {
			delete(m.stores, k)
			break
		}
	}
	s := Open(ctx, owner, m.storage, m.logger)
	m.stores[owner] = s
	return s
}
