package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-consensus/internal/logger"
	"github.com/rxtech-lab/argo-consensus/internal/simulation"
	"github.com/rxtech-lab/argo-consensus/internal/types"
	"github.com/rxtech-lab/argo-consensus/mocks"
	"github.com/rxtech-lab/argo-consensus/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const rsiConfig = `{
	"symbol": "BTCUSDT",
	"interval": "1m",
	"initial_capital": 10000,
	"strategies": [{"name": "rsi", "params": {"period": 3, "oversold": 30, "overbought": 70}}],
	"risk": {"name": "fixed", "params": {"risk_per_trade": 0.02, "risk_reward_ratio": 2}},
	"commission": {"broker": "zero_commission"}
}`

type ServerTestSuite struct {
	suite.Suite
	manager *simulation.Manager
	hub     *Hub
	server  *Server
	http    *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	log := logger.NewNopLogger()
	suite.manager = simulation.NewManager(log)
	suite.hub = NewHub(16, log)
	suite.server = New(suite.manager, suite.hub, log)
	suite.http = httptest.NewServer(suite.server.Handler())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.hub.Close()
	suite.http.Close()
}

func (suite *ServerTestSuite) do(method, path, body string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, suite.http.URL+path, strings.NewReader(body))
	suite.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	return resp, data
}

func (suite *ServerTestSuite) create(query string) simulation.Summary {
	resp, body := suite.do(http.MethodPost, "/api/v1/simulations"+query, rsiConfig)
	suite.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))

	var summary simulation.Summary
	suite.Require().NoError(json.Unmarshal(body, &summary))

	return summary
}

func (suite *ServerTestSuite) barsJSON(closes ...float64) string {
	bars := mocks.BarsFromCloses("BTCUSDT", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), closes...)

	data, err := json.Marshal(bars)
	suite.Require().NoError(err)

	return string(data)
}

func (suite *ServerTestSuite) errorCode(body []byte) errors.ErrorCode {
	var response ErrorResponse
	suite.Require().NoError(json.Unmarshal(body, &response))

	return response.Code
}

func (suite *ServerTestSuite) TestHealthAndSchema() {
	resp, body := suite.do(http.MethodGet, "/api/v1/health", "")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.JSONEq(`{"status":"ok"}`, string(body))

	resp, body = suite.do(http.MethodGet, "/api/v1/schema", "")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), "initial_capital")
}

func (suite *ServerTestSuite) TestLifecycle() {
	summary := suite.create("")
	suite.NotEmpty(summary.ID)
	suite.Equal(simulation.StatusIdle, summary.Status)
	suite.Equal("BTCUSDT", summary.Symbol)

	base := "/api/v1/simulations/" + summary.ID

	// bars are refused until started
	resp, body := suite.do(http.MethodPost, base+"/bars", suite.barsJSON(100))
	suite.Equal(http.StatusConflict, resp.StatusCode)
	suite.Equal(errors.ErrCodeInvalidState, suite.errorCode(body))

	resp, body = suite.do(http.MethodPost, base+"/start", "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `"status":"running"`)

	resp, body = suite.do(http.MethodPost, base+"/bars", suite.barsJSON(100, 99, 98, 97, 102))
	suite.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var bars BarsResponse
	suite.Require().NoError(json.Unmarshal(body, &bars))
	suite.Equal(5, bars.Processed)
	suite.Require().Len(bars.Result.Trades, 1)
	suite.Equal(97.0, bars.Result.Trades[0].EntryPrice)

	resp, body = suite.do(http.MethodGet, base, "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var result types.Result
	suite.Require().NoError(json.Unmarshal(body, &result))
	suite.Equal(summary.ID, result.ID)
	suite.Equal(5, result.BarsProcessed)

	resp, body = suite.do(http.MethodGet, "/api/v1/simulations", "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var list []simulation.Summary
	suite.Require().NoError(json.Unmarshal(body, &list))
	suite.Require().Len(list, 1)
	suite.Equal(1, list[0].Trades)

	resp, _ = suite.do(http.MethodPost, base+"/stop", "")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = suite.do(http.MethodDelete, base, "")
	suite.Equal(http.StatusNoContent, resp.StatusCode)

	resp, body = suite.do(http.MethodGet, base, "")
	suite.Equal(http.StatusNotFound, resp.StatusCode)
	suite.Equal(errors.ErrCodeSimulationNotFound, suite.errorCode(body))
}

func (suite *ServerTestSuite) TestCreateErrors() {
	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"malformed", `{"symbol":`, errors.ErrCodeInvalidConfiguration},
		{"invalid", `{"symbol":"BTCUSDT","initial_capital":0,"strategies":[{"name":"rsi"}],"risk":{"name":"fixed"}}`, errors.ErrCodeInvalidConfiguration},
		{"unknown strategy", `{"symbol":"BTCUSDT","initial_capital":10,"strategies":[{"name":"ichimoku"}],"risk":{"name":"fixed"}}`, errors.ErrCodeUnknownVariant},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			resp, body := suite.do(http.MethodPost, "/api/v1/simulations", tc.body)
			suite.Equal(http.StatusBadRequest, resp.StatusCode)
			suite.Equal(tc.code, suite.errorCode(body))
		})
	}

	suite.Empty(suite.manager.List())
}

func (suite *ServerTestSuite) TestUnknownSimulation() {
	for _, path := range []string{"/start", "/stop", ""} {
		method := http.MethodPost
		if path == "" {
			method = http.MethodDelete
		}

		resp, _ := suite.do(method, "/api/v1/simulations/missing"+path, "")
		suite.Equal(http.StatusNotFound, resp.StatusCode)
	}
}

func (suite *ServerTestSuite) TestInvalidBarsPayload() {
	summary := suite.create("?start=true")

	resp, body := suite.do(http.MethodPost, "/api/v1/simulations/"+summary.ID+"/bars", `{"not":"a list"}`)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal(errors.ErrCodeInvalidParameter, suite.errorCode(body))
}

func (suite *ServerTestSuite) TestWebSocketUpdates() {
	summary := suite.create("?start=true")
	suite.Equal(simulation.StatusRunning, summary.Status)

	url := "ws" + strings.TrimPrefix(suite.http.URL, "http") + "/api/v1/simulations/" + summary.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)
	defer conn.Close()

	suite.Eventually(func() bool { return suite.hub.Subscribers(summary.ID) == 1 }, time.Second, 10*time.Millisecond)

	resp, _ := suite.do(http.MethodPost, "/api/v1/simulations/"+summary.ID+"/bars", suite.barsJSON(100, 99, 98, 97, 102))
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var messages []Message

	for range 5 {
		suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

		_, data, err := conn.ReadMessage()
		suite.Require().NoError(err)

		var message Message
		suite.Require().NoError(json.Unmarshal(data, &message))
		messages = append(messages, message)
	}

	for i, message := range messages {
		suite.Equal("update", message.Type)
		suite.Equal(summary.ID, message.SimulationID)
		suite.Equal(i+1, message.Update.Result.BarsProcessed)
	}

	suite.NotNil(messages[3].Update.Opened)
	suite.NotNil(messages[4].Update.Closed)
}

func (suite *ServerTestSuite) TestSlowClientIsDropped() {
	hub := NewHub(1, logger.NewNopLogger())
	c := &client{send: make(chan []byte, 1)}
	hub.register("sim", c)

	hub.Publish("sim", types.Update{})
	suite.Equal(1, hub.Subscribers("sim"))

	// the second message does not fit and the client is dropped
	hub.Publish("sim", types.Update{})
	suite.Equal(0, hub.Subscribers("sim"))

	_, ok := <-c.send
	suite.True(ok)
	_, ok = <-c.send
	suite.False(ok)
}

func (suite *ServerTestSuite) TestStartAndShutdown() {
	manager := simulation.NewManager(logger.NewNopLogger())
	server := New(manager, NewHub(0, logger.NewNopLogger()), logger.NewNopLogger())
	suite.Require().NoError(server.Start("127.0.0.1:0"))
	suite.NotEmpty(server.Address())

	resp, err := http.Post("http://"+server.Address()+"/api/v1/simulations?start=true", "application/json", bytes.NewBufferString(rsiConfig))
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusCreated, resp.StatusCode)

	suite.NoError(server.Shutdown(suite.T().Context()))

	for _, summary := range manager.List() {
		suite.Equal(simulation.StatusStopped, summary.Status)
	}
}
