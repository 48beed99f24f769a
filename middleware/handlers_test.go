package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robobar/plcbridge"
	"github.com/robobar/plcbridge/internal/events"
)

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestReadRoutes(t *testing.T) {
	s, _ := newTestServer(t, newFakeBridge(), nil, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/DrinkTypes/", `{"statusCode":0,"drinkTypes":[{"id":0,"name":"Cola","enabled":true,
			"drinkGroups":{"soft":true,"alcohol":false,"coffee":false},"iceOption":false,"volumeOption":false,
			"parameters":{"showParameters":false,"coffeeStrength":0,"volumeInMl":0,"milkPercentage":0},
			"prepTimeInSeconds":12.5}]}`},
		{"/QueueState/", `{"statusCode":0,"queueDrinks":[
			{"drinkOrderId":14,"drinkTypeId":0,"prepStartedAt":"2024-03-15-14-30-45"},
			{"drinkOrderId":15,"drinkTypeId":1,"prepStartedAt":null}]}`},
		{"/PickUpDrinksState/", `{"statusCode":0,"pickUpDrinks":{
			"3":{"drinkOrderId":13,"drinkTypeId":2,"prepStartedAt":"2024-03-15-14-30-45"}}}`},
		{"/DrinkInProgress/0/", `{"statusCode":0,"drinkInProgress":
			{"drinkOrderId":14,"drinkTypeId":0,"prepStartedAt":"2024-03-15-14-30-45","prepDoneAt":null}}`},
		{"/DrinkInProgress/1/", `{"statusCode":0,"drinkInProgress":
			{"drinkOrderId":0,"drinkTypeId":0,"prepStartedAt":null,"prepDoneAt":null}}`},
		{"/PlcCurrentTime/", `{"statusCode":0,"plcCurrentTime":"2024-03-15-14-30-45"}`},
		{"/NewOrderStatus/", `{"statusCode":0,"newOrderStatus":{"orderPushedSuccessfully":true,"pushedOrderNumber":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		httpStatus int
		statusCode plcbridge.StatusCode
		code       string
	}{
		{"no connection", plcbridge.NewNoConnectionError("queue_state"), http.StatusServiceUnavailable, plcbridge.StatusNoConnection, ErrCodeNoConnection},
		{"timeout", timeoutError(), http.StatusGatewayTimeout, plcbridge.StatusTimeout, ErrCodeTimeout},
		{"read failure", &plcbridge.ClassifiedError{Category: plcbridge.ErrorCategoryReadFailure, Operation: "queue_state", Err: errPLC},
			http.StatusBadGateway, plcbridge.StatusGenericFailure, ErrCodeReadFailed},
		{"malformed", &plcbridge.ClassifiedError{Category: plcbridge.ErrorCategoryMalformedTimestamp, Operation: "queue_state", Err: errPLC},
			http.StatusBadGateway, plcbridge.StatusGenericFailure, ErrCodeMalformedData},
		{"unclassified", errPLC, http.StatusBadGateway, plcbridge.StatusGenericFailure, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := newFakeBridge()
			bridge.err = tt.err
			s, _ := newTestServer(t, bridge, nil, nil)

			rec := do(t, s, http.MethodGet, "/QueueState/", "")
			assert.Equal(t, tt.httpStatus, rec.Code)

			body := decode(t, rec)
			assert.EqualValues(t, tt.statusCode, body["statusCode"])
			assert.Equal(t, tt.code, body["error"].(map[string]any)["code"])
		})
	}
}

func TestDrinkInProgressSide(t *testing.T) {
	bridge := newFakeBridge()
	s, _ := newTestServer(t, bridge, nil, nil)

	for _, path := range []string{"/DrinkInProgress/left/", "/DrinkInProgress/2/", "/DrinkInProgress/-1/"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.EqualValues(t, plcbridge.StatusGenericFailure, decode(t, rec)["statusCode"], path)
	}
	assert.Zero(t, bridge.readCount())
}

func TestNewDrinkInQueue(t *testing.T) {
	bridge := newFakeBridge()
	pub := &fakePublisher{}
	s, _ := newTestServer(t, bridge, nil, pub)

	rec := do(t, s, http.MethodPost, "/NewDrinkInQueue/", `{"drinkId": 3, "subChoices": {"useIce": true, "useLargeGlass": true}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"statusCode":0,"newOrderStatus":{"orderPushedSuccessfully":true,"pushedOrderNumber":42}}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/NewDrinkInQueue/", `{"drinkId": 0, "subChoices": {}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []plcbridge.OrderRequest{
		{DrinkTypeID: 3, UseIce: true, DrinkSize: plcbridge.DrinkSizeLarge},
		{DrinkTypeID: 0, DrinkSize: plcbridge.DrinkSizeRegular},
	}, bridge.pushes)

	published := pub.published()
	require.Len(t, published, 2)
	assert.Equal(t, events.OrderAccepted, published[0].Outcome)
	require.NotNil(t, published[0].OrderNumber)
	assert.Equal(t, 42, *published[0].OrderNumber)
	assert.Equal(t, 2, published[0].DrinkSize)
}

func TestNewDrinkInQueueRejectsBadBodies(t *testing.T) {
	bridge := newFakeBridge()
	pub := &fakePublisher{}
	s, _ := newTestServer(t, bridge, nil, pub)

	for _, body := range []string{
		`not json`,
		`{"subChoices": {"useIce": true}}`,
		`{"drinkId": -4, "subChoices": {}}`,
		`{"drinkId": 40000, "subChoices": {}}`,
	} {
		rec := do(t, s, http.MethodPost, "/NewDrinkInQueue/", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.EqualValues(t, plcbridge.StatusGenericFailure, decode(t, rec)["statusCode"], body)
	}
	assert.Empty(t, bridge.pushes)
	assert.Empty(t, pub.published(), "refused requests are not order events")
}

func TestNewDrinkInQueueOutcomes(t *testing.T) {
	stale := 41
	rejected := &plcbridge.OrderResult{Accepted: false, AssignedOrderNumber: &stale}

	tests := []struct {
		name       string
		status     *plcbridge.OrderResult
		pushErr    error
		httpStatus int
		outcome    string
	}{
		{"rejected", rejected, nil, http.StatusOK, events.OrderRejected},
		{"timeout", nil, timeoutError(), http.StatusGatewayTimeout, events.OrderTimeout},
		{"write failure", nil, &plcbridge.ClassifiedError{Category: plcbridge.ErrorCategoryWriteFailure, Operation: "push_new_drink", Err: errPLC},
			http.StatusBadGateway, events.OrderFailed},
		{"disconnected", nil, plcbridge.NewNoConnectionError("push_new_drink"), http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := newFakeBridge()
			bridge.status = tt.status
			bridge.pushErr = tt.pushErr
			pub := &fakePublisher{}
			s, _ := newTestServer(t, bridge, nil, pub)

			rec := do(t, s, http.MethodPost, "/NewDrinkInQueue/", `{"drinkId": 1, "subChoices": {}}`)
			assert.Equal(t, tt.httpStatus, rec.Code)
			if tt.status != nil {
				assert.Contains(t, rec.Body.String(), `"pushedOrderNumber":41`)
			}

			if tt.outcome == "" {
				assert.Empty(t, pub.published())
				return
			}
			published := pub.published()
			require.Len(t, published, 1)
			assert.Equal(t, tt.outcome, published[0].Outcome)
			assert.Nil(t, published[0].OrderNumber, "only accepted orders carry a number")
		})
	}
}

func TestNewDrinkInQueueRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	s, _ := newTestServer(t, newFakeBridge(), cfg, nil)

	body := `{"drinkId": 1, "subChoices": {}}`
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/NewDrinkInQueue/", body).Code)

	rec := do(t, s, http.MethodPost, "/NewDrinkInQueue/", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ErrCodeRateLimited, decode(t, rec)["error"].(map[string]any)["code"])

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/QueueState/", "").Code, "reads are not limited")
}

func TestSystemRoutes(t *testing.T) {
	bridge := newFakeBridge()
	s, metrics := newTestServer(t, bridge, nil, &fakePublisher{})
	metrics.OrderPushed("accepted")

	rec := do(t, s, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode(t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["connected"])
	assert.Equal(t, "connected", health["state"])

	bridge.mu.Lock()
	bridge.connected = false
	bridge.mu.Unlock()
	health = decode(t, do(t, s, http.MethodGet, "/api/v1/health", ""))
	assert.Equal(t, "degraded", health["status"])
	assert.Contains(t, health["lastError"], "connection refused")

	info := decode(t, do(t, s, http.MethodGet, "/api/v1/info", ""))
	assert.Equal(t, "opc.tcp://plc.test:4840", info["endpoint"])
	assert.Equal(t, true, info["eventsEnabled"])
	assert.EqualValues(t, 1, info["metrics"].(map[string]any)["orders"].(map[string]any)["accepted"])

	version := decode(t, do(t, s, http.MethodGet, "/api/v1/version", ""))
	assert.Equal(t, "plcbridge", version["name"])
	assert.Equal(t, plcbridge.Version(), version["version"])
	if stack := plcbridge.GetBuildInfo().OPCUAVersion; stack != "" {
		assert.Equal(t, stack, version["opcuaVersion"])
	} else {
		assert.NotContains(t, version, "opcuaVersion")
	}

	root := decode(t, do(t, s, http.MethodGet, "/", ""))
	assert.Equal(t, "/ws/subscribe", root["websocket"])
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, newFakeBridge(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/NewDrinkInQueue/", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
