package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/rodrigogk87/crowdfunding/internal/database"
	"github.com/rodrigogk87/crowdfunding/internal/event"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/storage"
)

const genesis = 1_000_000

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type testServer struct {
	engine  *gin.Engine
	ledger  *host.Ledger
	monitor *event.Monitor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv, err := storage.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	ledger, err := host.New(kv, host.WithGenesisTime(genesis))
	require.NoError(t, err)

	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "index.db")))
	require.NoError(t, err)

	formatter := AmountFormatter{Decimals: 2}
	contractLogic := logic.NewContractLogic(db)
	contributeLogic := logic.NewContributeRecordLogic(db)
	refundLogic := logic.NewRefundRecordLogic(db)
	settlementLogic := logic.NewSettlementRecordLogic(db)
	eventLogic := logic.NewEventLogic(db)

	monitor := event.NewDefaultMonitor(ledger, eventLogic, contractLogic, contributeLogic, refundLogic, settlementLogic, 100)

	contracts := NewContractHandler(ledger, contractLogic, formatter)
	contributions := NewContributeHandler(contributeLogic, formatter)
	refunds := NewRefundHandler(refundLogic, formatter)
	settlements := NewSettlementHandler(settlementLogic, formatter)
	accounts := NewAccountHandler(ledger, formatter)
	ledgerHandler := NewLedgerHandler(ledger, eventLogic, formatter)

	r := gin.New()
	r.POST("/contracts", contracts.DeployContract)
	r.GET("/contracts", contracts.GetContracts)
	r.GET("/contracts/:address", contracts.GetContract)
	r.GET("/contracts/:address/status", contracts.GetStatus)
	r.GET("/contracts/:address/target", contracts.GetTarget)
	r.GET("/contracts/:address/deadline", contracts.GetDeadline)
	r.GET("/contracts/:address/funds", contracts.GetFunds)
	r.GET("/contracts/:address/deposits/:depositor", contracts.GetDeposit)
	r.POST("/contracts/:address/fund", contracts.Fund)
	r.POST("/contracts/:address/claim", contracts.Claim)
	r.GET("/contracts/:address/contributions", contributions.GetContractContributeRecords)
	r.GET("/contracts/:address/refunds", refunds.GetContractRefunds)
	r.GET("/contracts/:address/settlements", settlements.GetContractSettlements)
	r.GET("/accounts/:address/balance", accounts.GetBalance)
	r.GET("/accounts/:address/contributions", contributions.GetUserContributeRecords)
	r.POST("/accounts/:address/faucet", accounts.Faucet)
	r.GET("/ledger/head", ledgerHandler.GetHead)
	r.GET("/ledger/events", ledgerHandler.GetEvents)
	r.POST("/ledger/advance", ledgerHandler.AdvanceTime)

	return &testServer{engine: r, ledger: ledger, monitor: monitor}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *testServer) data(t *testing.T, method, path string, body interface{}, wantCode int) map[string]interface{} {
	t.Helper()
	code, resp := s.do(t, method, path, body)
	require.Equal(t, wantCode, code, resp["message"])
	data, _ := resp["data"].(map[string]interface{})
	return data
}

func (s *testServer) deploy(t *testing.T, target string, deadline uint64) string {
	t.Helper()
	data := s.data(t, http.MethodPost, "/contracts", gin.H{
		"owner":    owner.Hex(),
		"target":   target,
		"deadline": deadline,
	}, http.StatusCreated)
	assert.Equal(t, "init", data["method"])
	return data["contract"].(string)
}

func raw(v interface{}) string {
	return v.(map[string]interface{})["raw"].(string)
}

func TestFailedCampaignOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cf := s.deploy(t, "1000", genesis+100)

	data := s.data(t, http.MethodPost, "/accounts/"+alice.Hex()+"/faucet", gin.H{"amount": "500"}, http.StatusOK)
	assert.Equal(t, "500", raw(data["balance"]))
	assert.Equal(t, "5", data["balance"].(map[string]interface{})["value"])

	data = s.data(t, http.MethodPost, "/contracts/"+cf+"/fund", gin.H{"from": alice.Hex(), "value": "300"}, http.StatusOK)
	events := data["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "Funded", events[0].(map[string]interface{})["name"])

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/status", nil, http.StatusOK)
	assert.Equal(t, "FundingPeriod", data["status"])

	// 截止前不能领取
	code, _ := s.do(t, http.MethodPost, "/contracts/"+cf+"/claim", gin.H{"from": alice.Hex()})
	assert.Equal(t, http.StatusConflict, code)

	s.data(t, http.MethodPost, "/ledger/advance", gin.H{"seconds": 101}, http.StatusOK)

	code, _ = s.do(t, http.MethodPost, "/contracts/"+cf+"/fund", gin.H{"from": alice.Hex(), "value": "1"})
	assert.Equal(t, http.StatusConflict, code)

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/status", nil, http.StatusOK)
	assert.Equal(t, "Failed", data["status"])

	s.data(t, http.MethodPost, "/contracts/"+cf+"/claim", gin.H{"from": alice.Hex()}, http.StatusOK)

	data = s.data(t, http.MethodGet, "/accounts/"+alice.Hex()+"/balance", nil, http.StatusOK)
	assert.Equal(t, "500", raw(data["balance"]))
	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/deposits/"+alice.Hex(), nil, http.StatusOK)
	assert.Equal(t, "0", raw(data["deposit"]))

	_, err := s.monitor.Sync(context.Background())
	require.NoError(t, err)

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/refunds", nil, http.StatusOK)
	records := data["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, "300", raw(records[0].(map[string]interface{})["amount"]))

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/refunds?account="+alice.Hex(), nil, http.StatusOK)
	assert.Len(t, data["records"], 1)

	data = s.data(t, http.MethodGet, "/accounts/"+alice.Hex()+"/contributions", nil, http.StatusOK)
	assert.Len(t, data["records"], 1)
}

func TestSuccessfulCampaignOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cf := s.deploy(t, "100", genesis+50)

	s.data(t, http.MethodPost, "/accounts/"+alice.Hex()+"/faucet", gin.H{"amount": "100"}, http.StatusOK)
	s.data(t, http.MethodPost, "/contracts/"+cf+"/fund", gin.H{"from": alice.Hex(), "value": "100"}, http.StatusOK)

	data := s.data(t, http.MethodGet, "/contracts/"+cf+"/funds", nil, http.StatusOK)
	assert.Equal(t, "100", raw(data["currentFunds"]))
	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/target", nil, http.StatusOK)
	assert.Equal(t, "100", raw(data["target"]))
	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/deadline", nil, http.StatusOK)
	assert.EqualValues(t, genesis+50, data["deadline"])

	s.data(t, http.MethodPost, "/ledger/advance", gin.H{"seconds": 60}, http.StatusOK)

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/status", nil, http.StatusOK)
	assert.Equal(t, "Successful", data["status"])

	// 只有所有者可以取走资金
	code, _ := s.do(t, http.MethodPost, "/contracts/"+cf+"/claim", gin.H{"from": alice.Hex()})
	assert.Equal(t, http.StatusForbidden, code)

	data = s.data(t, http.MethodPost, "/contracts/"+cf+"/claim", gin.H{"from": owner.Hex()}, http.StatusOK)
	assert.Equal(t, "FundsClaimed", data["events"].([]interface{})[0].(map[string]interface{})["name"])

	data = s.data(t, http.MethodGet, "/accounts/"+owner.Hex()+"/balance", nil, http.StatusOK)
	assert.Equal(t, "100", raw(data["balance"]))

	_, err := s.monitor.Sync(context.Background())
	require.NoError(t, err)

	data = s.data(t, http.MethodGet, "/contracts/"+cf, nil, http.StatusOK)
	contract := data["contract"].(map[string]interface{})
	assert.Equal(t, "successful", contract["status"])
	assert.Equal(t, "100", raw(contract["totalClaimed"]))

	data = s.data(t, http.MethodGet, "/contracts/"+cf+"/settlements", nil, http.StatusOK)
	assert.Len(t, data["records"], 1)

	data = s.data(t, http.MethodGet, "/contracts?status=successful", nil, http.StatusOK)
	assert.Len(t, data["contracts"], 1)

	data = s.data(t, http.MethodGet, "/ledger/events?contract="+cf, nil, http.StatusOK)
	assert.Len(t, data["events"], 3)
}

func TestGetContractBeforeIndexing(t *testing.T) {
	s := newTestServer(t)
	cf := s.deploy(t, "10", genesis+10)

	data := s.data(t, http.MethodGet, "/contracts/"+cf, nil, http.StatusOK)
	assert.Nil(t, data["contract"])
	state := data["state"].(map[string]interface{})
	assert.Equal(t, "FundingPeriod", state["status"])
	assert.Equal(t, owner.Hex(), state["owner"])
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	cf := s.deploy(t, "10", genesis+10)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{"bad contract address", http.MethodGet, "/contracts/nope/status", nil, http.StatusBadRequest},
		{"unknown contract", http.MethodGet, "/contracts/" + alice.Hex() + "/status", nil, http.StatusNotFound},
		{"missing owner", http.MethodPost, "/contracts", gin.H{"target": "1"}, http.StatusBadRequest},
		{"negative target", http.MethodPost, "/contracts", gin.H{"owner": owner.Hex(), "target": "-1"}, http.StatusBadRequest},
		{"non numeric value", http.MethodPost, "/contracts/" + cf + "/fund", gin.H{"from": alice.Hex(), "value": "ten"}, http.StatusBadRequest},
		{"insufficient balance", http.MethodPost, "/contracts/" + cf + "/fund", gin.H{"from": alice.Hex(), "value": "5"}, http.StatusBadRequest},
		{"zero faucet", http.MethodPost, "/accounts/" + alice.Hex() + "/faucet", gin.H{"amount": "0"}, http.StatusBadRequest},
		{"faucet to contract", http.MethodPost, "/accounts/" + cf + "/faucet", gin.H{"amount": "1"}, http.StatusConflict},
		{"contract as sender", http.MethodPost, "/contracts/" + cf + "/fund", gin.H{"from": cf, "value": "0"}, http.StatusBadRequest},
		{"contract as owner", http.MethodPost, "/contracts", gin.H{"owner": cf, "target": "1", "deadline": genesis + 10}, http.StatusBadRequest},
		{"zero advance", http.MethodPost, "/ledger/advance", gin.H{"seconds": 0}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code, resp["message"])
			assert.Equal(t, false, resp["success"])
		})
	}
}

func TestGetHead(t *testing.T) {
	s := newTestServer(t)
	data := s.data(t, http.MethodGet, "/ledger/head", nil, http.StatusOK)
	assert.EqualValues(t, 0, data["height"])
	assert.EqualValues(t, genesis, data["timestamp"])
}

func TestAmountFormatter(t *testing.T) {
	f := AmountFormatter{Decimals: 18}
	a := f.FormatString("1500000000000000000")
	assert.Equal(t, "1500000000000000000", a.Raw)
	assert.Equal(t, "1.5", a.Value)

	assert.Equal(t, "0", f.FormatString("garbage").Raw)
}
