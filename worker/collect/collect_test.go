package collect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"digital_insight_go/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCollector struct {
	mu      sync.Mutex
	calls   []model.Kind
	fail    map[model.Kind]bool
	release chan struct{}
}

func (f *fakeCollector) Collect(ctx context.Context, _ string, kind model.Kind, _ model.CollectOptions) (*model.CollectResult, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()
	if f.fail[kind] {
		return nil, errors.New("boom")
	}
	return &model.CollectResult{Status: "success", Kind: kind, Message: "ok", Source: model.SourceReal}, nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []JobProgressMessage
}

func (r *recorder) add(m JobProgressMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestExecuteRunsKindsInOrder(t *testing.T) {
	fc := &fakeCollector{fail: map[model.Kind]bool{model.KindSystemInfo: true}}
	svc := NewCollectJobService(fc)
	rec := &recorder{}

	kinds := []model.Kind{model.KindBookmarks, model.KindSystemInfo, model.KindNetworkInfo}
	results, err := svc.Execute(context.Background(), "sid", kinds, model.CollectOptions{}, rec.add)
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, kinds, fc.calls)
	assert.Equal(t, []string{"info", "progress", "info", "progress", "error", "progress", "info", "success"}, rec.types())
	assert.False(t, svc.IsRunning())

	last := rec.msgs[len(rec.msgs)-1]
	assert.Contains(t, last.Message, "2/3")
	assert.Equal(t, 3, *rec.msgs[5].Current)
	assert.Equal(t, 3, *rec.msgs[5].Total)
}

func TestExecuteDefaultsToAllKinds(t *testing.T) {
	fc := &fakeCollector{}
	results, err := NewCollectJobService(fc).Execute(context.Background(), "sid", nil, model.CollectOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, results, len(model.AllKinds))
}

func TestStartRefusesSecondRunAndStops(t *testing.T) {
	fc := &fakeCollector{release: make(chan struct{})}
	svc := NewCollectJobService(fc)
	rec := &recorder{}

	require.NoError(t, svc.Start("sid", nil, model.CollectOptions{}, rec.add))
	assert.True(t, svc.IsRunning())

	err := svc.Start("sid", nil, model.CollectOptions{}, rec.add)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	_, err = svc.Execute(context.Background(), "sid", nil, model.CollectOptions{}, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	svc.Stop()
	svc.Wait()

	assert.False(t, svc.IsRunning())
	assert.Contains(t, rec.types(), "warning")
	assert.Equal(t, false, svc.GetStatus()["isRunning"])
	assert.Empty(t, fc.calls)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(JobProgressMessage{Job: "collect_all", Type: "info", Message: "你好"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got JobProgressMessage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "你好", got.Message)
	assert.Equal(t, "info", got.Type)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	hub.Close()
}
