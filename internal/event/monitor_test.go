package event

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rodrigogk87/crowdfunding/internal/crowdfunding"
	"github.com/rodrigogk87/crowdfunding/internal/database"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/model"
	"github.com/rodrigogk87/crowdfunding/internal/storage"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fixture struct {
	db      *gorm.DB
	monitor *Monitor
}

func newFixture(t *testing.T, ledger interface {
	EventSource
	ContractInspector
}, batchSize int) *fixture {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)

	m := NewDefaultMonitor(ledger,
		logic.NewEventLogic(db),
		logic.NewContractLogic(db),
		logic.NewContributeRecordLogic(db),
		logic.NewRefundRecordLogic(db),
		logic.NewSettlementRecordLogic(db),
		batchSize,
	)
	return &fixture{db: db, monitor: m}
}

func newLedger(t *testing.T) *host.Ledger {
	t.Helper()
	kv, err := storage.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	l, err := host.New(kv, host.WithGenesisTime(1000))
	require.NoError(t, err)
	return l
}

func call(t *testing.T, l *host.Ledger, from, to common.Address, method string, value int64) {
	t.Helper()
	input, err := crowdfunding.PackCall(method)
	require.NoError(t, err)
	_, err = l.Call(context.Background(), host.CallMsg{From: from, To: to, Input: input, Value: big.NewInt(value)})
	require.NoError(t, err)
}

func TestSyncIndexesFailedCampaign(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	f := newFixture(t, l, 2)

	input, err := crowdfunding.PackInit(big.NewInt(100), 1100)
	require.NoError(t, err)
	receipt, err := l.Deploy(ctx, host.DeployMsg{Owner: owner, Input: input})
	require.NoError(t, err)
	cf := receipt.Contract

	require.NoError(t, l.Mint(ctx, alice, big.NewInt(100)))
	require.NoError(t, l.Mint(ctx, bob, big.NewInt(100)))
	call(t, l, alice, cf, crowdfunding.MethodFund, 40)
	call(t, l, bob, cf, crowdfunding.MethodFund, 50)
	_, err = l.SealBlock(ctx, 1101)
	require.NoError(t, err)
	call(t, l, alice, cf, crowdfunding.MethodClaim, 0)

	// 批量大小为 2，需要多次同步
	total := 0
	for {
		n, err := f.monitor.Sync(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		total += n
	}
	assert.Equal(t, 4, total)

	var contract model.ContractModel
	require.NoError(t, f.db.Where("address = ?", cf.Hex()).First(&contract).Error)
	assert.Equal(t, owner.Hex(), contract.Owner)
	assert.Equal(t, "100", contract.Target)
	assert.Equal(t, uint64(1100), contract.Deadline)
	assert.Equal(t, "90", contract.TotalFunded)
	assert.Equal(t, "40", contract.TotalRefunded)
	assert.Equal(t, int64(2), contract.ContributorCount)

	var refunds []model.RefundRecordModel
	require.NoError(t, f.db.Find(&refunds).Error)
	require.Len(t, refunds, 1)
	assert.Equal(t, alice.Hex(), refunds[0].Address)

	var pending int64
	require.NoError(t, f.db.Model(&model.EventModel{}).Where("processed = ?", false).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestSyncIndexesOwnerClaim(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	f := newFixture(t, l, 100)

	input, err := crowdfunding.PackInit(big.NewInt(100), 1100)
	require.NoError(t, err)
	receipt, err := l.Deploy(ctx, host.DeployMsg{Owner: owner, Input: input})
	require.NoError(t, err)
	cf := receipt.Contract

	require.NoError(t, l.Mint(ctx, alice, big.NewInt(100)))
	call(t, l, alice, cf, crowdfunding.MethodFund, 100)
	_, err = l.SealBlock(ctx, 1200)
	require.NoError(t, err)
	call(t, l, owner, cf, crowdfunding.MethodClaim, 0)

	n, err := f.monitor.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var settlement model.SettlementRecordModel
	require.NoError(t, f.db.First(&settlement).Error)
	assert.Equal(t, "100", settlement.Amount)
	assert.Equal(t, owner.Hex(), settlement.Owner)

	var contract model.ContractModel
	require.NoError(t, f.db.First(&contract).Error)
	assert.Equal(t, model.ContractStatusSuccessful, contract.Status)
}

// flakyLedger 第一次 Inspect 失败
type flakyLedger struct {
	records []host.EventRecord
	fails   int
}

func (f *flakyLedger) Events(fromSeq uint64, limit int) ([]host.EventRecord, error) {
	var out []host.EventRecord
	for _, r := range f.records {
		if r.Seq >= fromSeq && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *flakyLedger) Inspect(_ context.Context, addr common.Address) (*host.ContractState, error) {
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("ledger unavailable")
	}
	return &host.ContractState{Address: addr, Owner: owner, Target: big.NewInt(10), Deadline: 50}, nil
}

func TestSyncRetriesFailedEvents(t *testing.T) {
	ctx := context.Background()
	cf := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	src := &flakyLedger{
		fails: 1,
		records: []host.EventRecord{
			{Seq: 1, Contract: cf, Name: host.EventContractDeployed, Account: owner, Amount: new(big.Int), TxHash: common.HexToHash("0x01")},
			{Seq: 2, Contract: cf, Name: crowdfunding.EventFunded, Account: alice, Amount: big.NewInt(7), TxHash: common.HexToHash("0x02")},
		},
	}
	f := newFixture(t, src, 10)

	n, err := f.monitor.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var pending int64
	require.NoError(t, f.db.Model(&model.EventModel{}).Where("processed = ?", false).Count(&pending).Error)
	assert.Equal(t, int64(2), pending)

	// 第二次同步按序号重试
	n, err = f.monitor.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.db.Model(&model.EventModel{}).Where("processed = ?", false).Count(&pending).Error)
	assert.Zero(t, pending)

	var contract model.ContractModel
	require.NoError(t, f.db.First(&contract).Error)
	assert.Equal(t, "7", contract.TotalFunded)
}

func TestSyncSkipsUnknownEventTypes(t *testing.T) {
	src := &flakyLedger{records: []host.EventRecord{
		{Seq: 1, Contract: owner, Name: "Mystery", Amount: new(big.Int), TxHash: common.HexToHash("0x01")},
	}}
	f := newFixture(t, src, 10)

	n, err := f.monitor.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var event model.EventModel
	require.NoError(t, f.db.First(&event).Error)
	assert.True(t, event.Processed)
}
