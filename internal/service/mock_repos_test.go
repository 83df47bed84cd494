package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/DEVASANJAY001/qamatrixx/internal/model"
	"github.com/DEVASANJAY001/qamatrixx/internal/repository"
	pkgerrors "github.com/DEVASANJAY001/qamatrixx/pkg/errors"
)

// ── Mock ConcernRepository ──

type mockConcernRepo struct {
	concerns  map[int]*model.QAConcern
	deleted   map[int]bool
	updates   int
	conflict  bool   // 为 true 时 Update 模拟并发修改
	failAfter int    // >0 时第 failAfter 次之后的 Update 返回冲突
	onList    func() // List 取完快照后执行一次，模拟读取期间的并发写入
}

func newMockConcernRepo() *mockConcernRepo {
	return &mockConcernRepo{
		concerns: make(map[int]*model.QAConcern),
		deleted:  make(map[int]bool),
	}
}

// seed 直接放入记录（不经过业务层）
func (m *mockConcernRepo) seed(cs ...*model.QAConcern) {
	for _, c := range cs {
		if c.Version == 0 {
			c.Version = 1
		}
		m.concerns[c.SNo] = c.Clone()
	}
}

func (m *mockConcernRepo) Create(_ context.Context, c *model.QAConcern) error {
	if _, ok := m.concerns[c.SNo]; ok {
		return pkgerrors.ErrDuplicateSNo
	}
	if _, ok := m.deleted[c.SNo]; ok {
		return pkgerrors.ErrDuplicateSNo
	}
	c.Version = 1
	m.concerns[c.SNo] = c.Clone()
	return nil
}

func (m *mockConcernRepo) BatchCreate(ctx context.Context, cs []model.QAConcern) error {
	for i := range cs {
		if err := m.Create(ctx, &cs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockConcernRepo) GetBySNo(_ context.Context, sNo int) (*model.QAConcern, error) {
	if c, ok := m.concerns[sNo]; ok {
		return c.Clone(), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConcernRepo) List(_ context.Context) ([]model.QAConcern, error) {
	keys := make([]int, 0, len(m.concerns))
	for k := range m.concerns {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	result := make([]model.QAConcern, 0, len(keys))
	for _, k := range keys {
		result = append(result, *m.concerns[k].Clone())
	}
	if hook := m.onList; hook != nil {
		m.onList = nil
		hook()
	}
	return result, nil
}

func (m *mockConcernRepo) MaxSNo(_ context.Context) (int, error) {
	max := 0
	for k := range m.concerns {
		if k > max {
			max = k
		}
	}
	for k := range m.deleted {
		if k > max {
			max = k
		}
	}
	return max, nil
}

func (m *mockConcernRepo) Update(_ context.Context, c *model.QAConcern) error {
	stored, ok := m.concerns[c.SNo]
	if m.conflict || (m.failAfter > 0 && m.updates >= m.failAfter) || !ok || stored.Version != c.Version {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version++
	m.concerns[c.SNo] = c.Clone()
	m.updates++
	return nil
}

func (m *mockConcernRepo) Delete(_ context.Context, sNo int, _ string) error {
	delete(m.concerns, sNo)
	m.deleted[sNo] = true
	return nil
}

func (m *mockConcernRepo) ReplaceAll(_ context.Context, cs []model.QAConcern) error {
	m.concerns = make(map[int]*model.QAConcern)
	m.deleted = make(map[int]bool)
	for i := range cs {
		cs[i].Version = 1
		m.concerns[cs[i].SNo] = cs[i].Clone()
	}
	return nil
}

// ── Mock ChangeLogRepository ──

type mockChangeLogRepo struct {
	logs []model.ConcernChangeLog
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{}
}

func (m *mockChangeLogRepo) Create(_ context.Context, log *model.ConcernChangeLog) error {
	log.ChangeLogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockChangeLogRepo) ListBySNo(_ context.Context, sNo int, offset, limit int) ([]model.ConcernChangeLog, int64, error) {
	var matched []model.ConcernChangeLog
	for _, l := range m.logs {
		if l.SNo == sNo {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── Mock OperatorRepository ──

type mockOperatorRepo struct {
	operators map[string]*model.Operator // key: operator_id 或 username
}

func newMockOperatorRepo() *mockOperatorRepo {
	return &mockOperatorRepo{operators: make(map[string]*model.Operator)}
}

func (m *mockOperatorRepo) Create(_ context.Context, op *model.Operator) error {
	if op.OperatorID == "" {
		op.OperatorID = "op-" + op.Username
	}
	m.operators[op.OperatorID] = op
	m.operators["username:"+op.Username] = op
	return nil
}

func (m *mockOperatorRepo) GetByID(_ context.Context, id string) (*model.Operator, error) {
	if op, ok := m.operators[id]; ok {
		return op, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOperatorRepo) GetByUsername(_ context.Context, username string) (*model.Operator, error) {
	if op, ok := m.operators["username:"+username]; ok {
		return op, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SummaryCache / TokenBlacklist ──

type mockCache struct {
	data        map[string][]byte
	gets, hits  int
	blacklisted map[string]time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{
		data:        make(map[string][]byte),
		blacklisted: make(map[string]time.Duration),
	}
}

func (m *mockCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	m.gets++
	b, ok := m.data[key]
	if ok {
		m.hits++
	}
	return b, ok, nil
}

func (m *mockCache) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	if b, ok := m.data[key]; ok {
		n, _ = strconv.ParseInt(string(b), 10, 64)
	}
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *mockCache) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.blacklisted[jti] = ttl
	return nil
}

// ── 测试辅助 ──

type testRepos struct {
	concern   *mockConcernRepo
	changeLog *mockChangeLogRepo
	operator  *mockOperatorRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	m := &testRepos{
		concern:   newMockConcernRepo(),
		changeLog: newMockChangeLogRepo(),
		operator:  newMockOperatorRepo(),
	}
	repo := &repository.Repository{
		Concern:   m.concern,
		ChangeLog: m.changeLog,
		Operator:  m.operator,
	}
	return repo, m
}

func intPtr(n int) *int { return &n }
