package download

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Aria2 speaks the aria2 JSON-RPC protocol over a websocket. One connection
// carries both request/response pairs, correlated by request ID, and the
// daemon's push notifications.
type Aria2 struct {
	url    string
	secret string
	log    *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	nextID    atomic.Int64
	pendingMu sync.Mutex
	pending   map[string]chan *rpcResponse

	events chan Event
	done   chan struct{}
}

const (
	dialAttempts = 3
	dialBackoff  = 5 * time.Second
	callTimeout  = 30 * time.Second
)

// DialAria2 connects to the daemon, retrying a fixed number of times before
// giving up.
func DialAria2(ctx context.Context, url, secret string, log *slog.Logger) (*Aria2, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "aria2")

	var conn *websocket.Conn
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, _, err = websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err == nil {
			break
		}
		log.Warn("daemon dial failed", "attempt", attempt, "url", url, "error", err)
		if attempt < dialAttempts {
			select {
			case <-time.After(dialBackoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, ctx.Err())
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}

	a := &Aria2{
		url:     url,
		secret:  secret,
		log:     log,
		conn:    conn,
		pending: make(map[string]chan *rpcResponse),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	go a.readLoop()
	log.Info("daemon connected", "url", url)
	return a, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params json.RawMessage `json:"params"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("aria2 error %d: %s", e.Code, e.Message)
}

// readLoop routes incoming frames: responses go to their waiting caller,
// notifications become events. Exits when the connection drops.
func (a *Aria2) readLoop() {
	defer close(a.events)
	defer close(a.done)
	for {
		var resp rpcResponse
		if err := a.conn.ReadJSON(&resp); err != nil {
			a.log.Error("daemon connection lost", "error", err)
			a.failPending()
			return
		}

		if resp.ID != "" {
			a.pendingMu.Lock()
			ch, ok := a.pending[resp.ID]
			delete(a.pending, resp.ID)
			a.pendingMu.Unlock()
			if ok {
				ch <- &resp
			}
			continue
		}

		if kind, ok := notificationKind(resp.Method); ok {
			for _, gid := range notificationGIDs(resp.Params) {
				select {
				case a.events <- Event{Kind: kind, GID: gid}:
				default:
					a.log.Warn("event channel full, dropping", "method", resp.Method, "gid", gid)
				}
			}
		}
	}
}

func (a *Aria2) failPending() {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	for id, ch := range a.pending {
		close(ch)
		delete(a.pending, id)
	}
}

func notificationKind(method string) (EventKind, bool) {
	switch method {
	case "aria2.onDownloadStart":
		return EventStarted, true
	case "aria2.onDownloadComplete", "aria2.onBtDownloadComplete":
		return EventCompleted, true
	case "aria2.onDownloadError":
		return EventFailed, true
	}
	return "", false
}

func notificationGIDs(params json.RawMessage) []string {
	var entries []struct {
		GID string `json:"gid"`
	}
	if err := json.Unmarshal(params, &entries); err != nil {
		return nil
	}
	gids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.GID != "" {
			gids = append(gids, e.GID)
		}
	}
	return gids
}

// call performs one JSON-RPC round trip.
func (a *Aria2) call(ctx context.Context, method string, params []any, result any) error {
	if a.secret != "" {
		params = append([]any{"token:" + a.secret}, params...)
	}

	id := strconv.FormatInt(a.nextID.Add(1), 10)
	ch := make(chan *rpcResponse, 1)
	a.pendingMu.Lock()
	a.pending[id] = ch
	a.pendingMu.Unlock()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	a.writeMu.Lock()
	err := a.conn.WriteJSON(req)
	a.writeMu.Unlock()
	if err != nil {
		a.pendingMu.Lock()
		delete(a.pending, id)
		a.pendingMu.Unlock()
		return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()
	select {
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("%w: connection closed", ErrDaemonUnavailable)
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("decode %s result: %w", method, err)
			}
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s timed out", ErrDaemonUnavailable, method)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddURI submits a payload to the daemon.
func (a *Aria2) AddURI(ctx context.Context, uris []string, options map[string]string) (string, error) {
	params := []any{uris}
	if len(options) > 0 {
		params = append(params, options)
	}
	var gid string
	if err := a.call(ctx, "aria2.addUri", params, &gid); err != nil {
		return "", err
	}
	return gid, nil
}

// aria2 reports numeric fields as decimal strings.
type aria2Status struct {
	GID             string `json:"gid"`
	Status          string `json:"status"`
	TotalLength     string `json:"totalLength"`
	CompletedLength string `json:"completedLength"`
	DownloadSpeed   string `json:"downloadSpeed"`
	ErrorMessage    string `json:"errorMessage"`
	Files           []struct {
		Path string `json:"path"`
	} `json:"files"`
}

// TellStatus reports the live state of one transfer.
func (a *Aria2) TellStatus(ctx context.Context, gid string) (*DaemonStatus, error) {
	var raw aria2Status
	if err := a.call(ctx, "aria2.tellStatus", []any{gid}, &raw); err != nil {
		return nil, err
	}
	st := &DaemonStatus{
		GID:             raw.GID,
		Status:          raw.Status,
		TotalLength:     parseInt64(raw.TotalLength),
		CompletedLength: parseInt64(raw.CompletedLength),
		DownloadSpeed:   parseInt64(raw.DownloadSpeed),
		ErrorMessage:    raw.ErrorMessage,
	}
	for _, f := range raw.Files {
		st.Files = append(st.Files, f.Path)
	}
	return st, nil
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// Remove cancels a transfer. A GID the daemon no longer knows is treated as
// already removed.
func (a *Aria2) Remove(ctx context.Context, gid string) error {
	var removed string
	if err := a.call(ctx, "aria2.remove", []any{gid}, &removed); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil
		}
		return err
	}
	return nil
}

type aria2GlobalStat struct {
	DownloadSpeed string `json:"downloadSpeed"`
	UploadSpeed   string `json:"uploadSpeed"`
	NumActive     string `json:"numActive"`
	NumWaiting    string `json:"numWaiting"`
	NumStopped    string `json:"numStopped"`
}

// GlobalStat reports daemon-wide counters.
func (a *Aria2) GlobalStat(ctx context.Context) (*GlobalStat, error) {
	var raw aria2GlobalStat
	if err := a.call(ctx, "aria2.getGlobalStat", nil, &raw); err != nil {
		return nil, err
	}
	return &GlobalStat{
		DownloadSpeed: parseInt64(raw.DownloadSpeed),
		UploadSpeed:   parseInt64(raw.UploadSpeed),
		NumActive:     int(parseInt64(raw.NumActive)),
		NumWaiting:    int(parseInt64(raw.NumWaiting)),
		NumStopped:    int(parseInt64(raw.NumStopped)),
	}, nil
}

// PauseAll suspends every active transfer.
func (a *Aria2) PauseAll(ctx context.Context) error {
	return a.call(ctx, "aria2.pauseAll", nil, nil)
}

// UnpauseAll resumes every paused transfer.
func (a *Aria2) UnpauseAll(ctx context.Context) error {
	return a.call(ctx, "aria2.unpauseAll", nil, nil)
}

// PurgeResults drops the daemon's completed and failed result list.
func (a *Aria2) PurgeResults(ctx context.Context) error {
	return a.call(ctx, "aria2.purgeDownloadResult", nil, nil)
}

// Events delivers push notifications. Closed when the connection ends.
func (a *Aria2) Events() <-chan Event {
	return a.events
}

// Close shuts the connection down.
func (a *Aria2) Close() error {
	err := a.conn.Close()
	<-a.done
	return err
}
