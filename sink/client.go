// VyPR
// Copyright (C) 2018-2026+ Joshua Dawes and the VyPR contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package sink submits function-call records and verdict reports to the
// external verdict server over HTTP.
package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/joshdawes/vypr/formula"
	"github.com/joshdawes/vypr/util"
)

// ErrSinkUnavailable is returned when the verdict server can't be reached
// at all (connection refused, DNS failure, timeout).
var ErrSinkUnavailable = errors.New("sink: verdict server unavailable")

// FunctionCallRecord is the payload submitted at function-end.
type FunctionCallRecord struct {
	FunctionName    string `json:"function_name"`
	TimeOfCall      int64  `json:"time_of_call"`
	EndTimeOfCall   int64  `json:"end_time_of_call"`
	ProgramPath     []int  `json:"program_path"`
	TransactionTime int64  `json:"transaction_time,omitempty"`
}

// FunctionCallIDs is what the verdict server assigns in response to a
// submitted FunctionCallRecord.
type FunctionCallIDs struct {
	FunctionID     string `json:"function_id"`
	FunctionCallID string `json:"function_call_id"`
}

// VerdictEntry is every verdict collapsed under one static
// quantifier-binding index, since cloning can make more than one monitor
// collapse under the same index within a single function call.
type VerdictEntry struct {
	StaticQDIndex int               `json:"static_qd_index"`
	Verdicts      []formula.Verdict `json:"verdicts"`
}

// Client is the verdict sink contract: submit a function call record
// (synchronous, must succeed before verdicts can be associated with it),
// then submit verdicts for it (best-effort).
type Client interface {
	SubmitFunctionCall(record FunctionCallRecord) (FunctionCallIDs, error)
	SubmitVerdicts(entries []VerdictEntry, propertyHash string, ids FunctionCallIDs) error
}

// TestStatusRecord is the test metadata forwarded for a "test_status" event
// when the sink client supports it.
type TestStatusRecord struct {
	FunctionName string `json:"function_name"`
	TestName     string `json:"test_name"`
	Status       string `json:"status"`
	Start        int64  `json:"start"`
	End          int64  `json:"end"`
}

// TestStatusReporter is an optional Client capability: sinks that can
// forward test-framework metadata implement it. monitor.Consumer type-
// asserts for it rather than requiring every Client to support test mode,
// since most verdict sinks have no use for it outside test_module runs.
type TestStatusReporter interface {
	SubmitTestStatus(record TestStatusRecord) error
}

// HTTPClient is the production Client: a thin net/http wrapper around the
// verdict server's two endpoints.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	Logf    func(format string, v ...interface{})

	// Verbose, when set, dumps every outgoing request body through Logf
	// (via a util.LogWriter), matching config's verbose key.
	Verbose bool

	wg sync.WaitGroup
}

// NewHTTPClient returns a client targeting baseURL, with a sane request
// timeout if httpClient is nil.
func NewHTTPClient(baseURL string, httpClient *http.Client, logf func(format string, v ...interface{})) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{BaseURL: baseURL, HTTP: httpClient, Logf: logf}
}

// logRequestBody writes body to c's Logf, tagged with endpoint, when c is
// running verbose. A *util.LogWriter is used as the io.Writer destination
// so the same prefixed-logf plumbing the rest of this system uses for
// logging is reused here rather than a bespoke dump.
func (c *HTTPClient) logRequestBody(endpoint string, body []byte) {
	if !c.Verbose || c.Logf == nil {
		return
	}
	w := &util.LogWriter{Prefix: "sink: " + endpoint + " request body: ", Logf: c.Logf}
	w.Write(body)
}

// Ping verifies the verdict server is reachable, used at startup to decide
// whether to disable monitoring for the rest of the process's lifetime.
func (c *HTTPClient) Ping() error {
	c.wg.Add(1)
	defer c.wg.Done()

	resp, err := c.HTTP.Get(c.BaseURL)
	if err != nil {
		return errors.Wrap(ErrSinkUnavailable, err.Error())
	}
	defer resp.Body.Close()
	return nil
}

func (c *HTTPClient) SubmitFunctionCall(record FunctionCallRecord) (FunctionCallIDs, error) {
	c.wg.Add(1)
	defer c.wg.Done()

	body, err := json.Marshal(record)
	if err != nil {
		return FunctionCallIDs{}, errors.Wrap(err, "sink: encoding function call record")
	}
	c.logRequestBody("function-call", body)

	resp, err := c.HTTP.Post(c.BaseURL+"function-call", "application/json", bytes.NewReader(body))
	if err != nil {
		return FunctionCallIDs{}, errors.Wrap(ErrSinkUnavailable, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FunctionCallIDs{}, errors.Wrap(ErrSinkUnavailable, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var ids FunctionCallIDs
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return FunctionCallIDs{}, errors.Wrap(err, "sink: decoding function call ids")
	}
	return ids, nil
}

func (c *HTTPClient) SubmitVerdicts(entries []VerdictEntry, propertyHash string, ids FunctionCallIDs) error {
	c.wg.Add(1)
	defer c.wg.Done()

	payload := struct {
		PropertyHash   string         `json:"property_hash"`
		FunctionID     string         `json:"function_id"`
		FunctionCallID string         `json:"function_call_id"`
		Verdicts       []VerdictEntry `json:"verdicts"`
	}{propertyHash, ids.FunctionID, ids.FunctionCallID, entries}

	body, err := json.Marshal(payload)
	if err != nil {
		if c.Logf != nil {
			c.Logf("sink: encoding verdict report: %v", err)
		}
		return nil
	}
	c.logRequestBody("verdicts", body)

	resp, err := c.HTTP.Post(c.BaseURL+"verdicts", "application/json", bytes.NewReader(body))
	if err != nil {
		if c.Logf != nil {
			c.Logf("sink: submitting verdicts: %v (swallowed, best-effort)", err)
		}
		return nil
	}
	defer resp.Body.Close()
	return nil
}

// SubmitTestStatus posts test-framework metadata. Best-effort: errors are
// logged and swallowed, matching SubmitVerdicts.
func (c *HTTPClient) SubmitTestStatus(record TestStatusRecord) error {
	c.wg.Add(1)
	defer c.wg.Done()

	body, err := json.Marshal(record)
	if err != nil {
		if c.Logf != nil {
			c.Logf("sink: encoding test status: %v", err)
		}
		return nil
	}
	c.logRequestBody("test-status", body)

	resp, err := c.HTTP.Post(c.BaseURL+"test-status", "application/json", bytes.NewReader(body))
	if err != nil {
		if c.Logf != nil {
			c.Logf("sink: submitting test status: %v (swallowed, best-effort)", err)
		}
		return nil
	}
	defer resp.Body.Close()
	return nil
}

// Wait blocks until every in-flight request started by c has completed.
// Used at shutdown so the consumer's background worker doesn't exit with
// requests still outstanding.
func (c *HTTPClient) Wait() {
	c.wg.Wait()
}
