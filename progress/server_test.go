package progress

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Socket(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	s.Update(Status{File: "a.gcode", Percent: 10, Tally: 3, Lines: 30})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+SocketPath, nil)
	require.NoError(t, err)
	defer conn.Close()

	var st Status
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, Status{File: "a.gcode", Percent: 10, Tally: 3, Lines: 30}, st)

	s.Update(Status{File: "a.gcode", Percent: 20, Tally: 6, Lines: 30})
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, 20, st.Percent)

	s.Close()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}

func TestServer_Events(t *testing.T) {
	s := NewServer(nil)
	srv := httptest.NewServer(s)
	defer srv.Close()
	defer s.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		// the subscription is registered asynchronously; repeat until seen
		for {
			s.Update(Status{File: "b.gcode", Percent: 42})
			select {
			case <-stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()

	resp, err := http.Get(srv.URL + EventsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data:") {
			assert.Contains(t, line, `"percent":42`)
			assert.Contains(t, line, `"file":"b.gcode"`)
			return
		}
	}
}

func TestServer_NotFound(t *testing.T) {
	s := NewServer(nil)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest("GET", "/events/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
