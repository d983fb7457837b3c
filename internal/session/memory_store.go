package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps profiles and records in memory. Per user updates are
// serialized with a user mutex, and staged writes are applied only when the
// update succeeds.
type MemoryStore struct {
	userLocks sync.Map // int64 -> *sync.Mutex

	mu       sync.RWMutex
	profiles map[int64]Profile
	records  map[int64]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]Profile),
		records:  make(map[int64]map[string]Record),
	}
}

func (s *MemoryStore) userLock(userID int64) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (s *MemoryStore) Update(ctx context.Context, userID int64, fn func(ctx context.Context, tx Tx) error) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tx := &memoryTx{
		store:   s,
		userID:  userID,
		upserts: make(map[string]Record),
		deletes: make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.commit(tx)
	return nil
}

func (s *MemoryStore) commit(tx *memoryTx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.profile != nil {
		s.profiles[tx.userID] = cloneProfile(*tx.profile)
	}

	userRecords := s.records[tx.userID]
	if userRecords == nil {
		userRecords = make(map[string]Record)
		s.records[tx.userID] = userRecords
	}
	for key := range tx.deletes {
		delete(userRecords, key)
	}
	for key, record := range tx.upserts {
		userRecords[key] = record
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, userID int64) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileLocked(userID), nil
}

func (s *MemoryStore) profileLocked(userID int64) *Profile {
	profile, ok := s.profiles[userID]
	if !ok {
		return &Profile{UserID: userID}
	}
	cloned := cloneProfile(profile)
	return &cloned
}

func (s *MemoryStore) GetRecord(_ context.Context, userID int64, day time.Time) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordLocked(userID, FormatDay(day))
}

func (s *MemoryStore) recordLocked(userID int64, key string) (*Record, error) {
	record, ok := s.records[userID][key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cloned := cloneRecord(record)
	return &cloned, nil
}

func (s *MemoryStore) ListRecords(_ context.Context, userID int64, from, to time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	for _, record := range s.records[userID] {
		if record.Day.Before(from) || record.Day.After(to) {
			continue
		}
		records = append(records, cloneRecord(record))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Day.Before(records[j].Day)
	})
	return records, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, cloneProfile(profile))
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UserID < profiles[j].UserID
	})
	return profiles, nil
}

type memoryTx struct {
	store   *MemoryStore
	userID  int64
	profile *Profile
	upserts map[string]Record
	deletes map[string]bool
}

func (tx *memoryTx) Profile(_ context.Context) (*Profile, error) {
	if tx.profile != nil {
		cloned := cloneProfile(*tx.profile)
		return &cloned, nil
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	return tx.store.profileLocked(tx.userID), nil
}

func (tx *memoryTx) SaveProfile(_ context.Context, profile *Profile) error {
	cloned := cloneProfile(*profile)
	cloned.UserID = tx.userID
	tx.profile = &cloned
	return nil
}

func (tx *memoryTx) GetRecord(_ context.Context, day time.Time) (*Record, error) {
	key := FormatDay(day)
	if record, ok := tx.upserts[key]; ok {
		cloned := cloneRecord(record)
		return &cloned, nil
	}
	if tx.deletes[key] {
		return nil, ErrRecordNotFound
	}

	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	return tx.store.recordLocked(tx.userID, key)
}

func (tx *memoryTx) LatestRecordBefore(_ context.Context, day time.Time) (*Record, error) {
	var latest *Record
	consider := func(record Record) {
		if !record.Day.Before(day) {
			return
		}
		if latest == nil || record.Day.After(latest.Day) {
			cloned := cloneRecord(record)
			latest = &cloned
		}
	}

	for _, record := range tx.upserts {
		consider(record)
	}

	tx.store.mu.RLock()
	for key, record := range tx.store.records[tx.userID] {
		if tx.deletes[key] {
			continue
		}
		if _, staged := tx.upserts[key]; staged {
			continue
		}
		consider(record)
	}
	tx.store.mu.RUnlock()

	if latest == nil {
		return nil, ErrRecordNotFound
	}
	return latest, nil
}

func (tx *memoryTx) UpsertRecord(ctx context.Context, record *Record) error {
	key := FormatDay(record.Day)

	toStore := cloneRecord(*record)
	toStore.UserID = tx.userID
	if existing, err := tx.GetRecord(ctx, record.Day); err == nil {
		toStore.CreatedAt = existing.CreatedAt
	}

	delete(tx.deletes, key)
	tx.upserts[key] = toStore
	return nil
}

func (tx *memoryTx) DeleteRecord(ctx context.Context, day time.Time) error {
	if _, err := tx.GetRecord(ctx, day); err != nil {
		return err
	}

	key := FormatDay(day)
	delete(tx.upserts, key)
	tx.deletes[key] = true
	return nil
}

func cloneProfile(p Profile) Profile {
	if p.LastActivity != nil {
		t := *p.LastActivity
		p.LastActivity = &t
	}
	if p.LastSessionDate != nil {
		t := *p.LastSessionDate
		p.LastSessionDate = &t
	}
	return p
}

func cloneRecord(r Record) Record {
	r.Report = r.Report.Clone()
	return r
}
