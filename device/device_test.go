package device

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idleReader yields its data and then reports idle reads forever.
type idleReader struct{ r io.Reader }

func (i *idleReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if err == io.EOF {
		time.Sleep(time.Millisecond)
	}
	return n, err
}

func TestLineReader(t *testing.T) {
	lr := NewLineReader(&idleReader{r: strings.NewReader("start\r\nok T:210 B:60\nok\npart")})

	for _, exp := range []string{"start", "ok T:210 B:60", "ok"} {
		s, err := lr.ReadLine(time.Second)
		require.NoError(t, err)
		assert.Equal(t, exp, s)
	}

	_, err := lr.ReadLine(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

// slowReader yields one byte per read after a delay.
type slowReader struct {
	data  string
	delay time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	time.Sleep(r.delay)
	if r.data == "" {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestLineReader_SlowLine(t *testing.T) {
	lr := NewLineReader(&slowReader{data: "ok T:210 B:60\n", delay: 5 * time.Millisecond})

	// the whole line takes longer than the timeout, each byte does not
	s, err := lr.ReadLine(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "ok T:210 B:60", s)

	_, err = lr.ReadLine(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestLineReader_Error(t *testing.T) {
	lr := NewLineReader(&Null{closed: closedChan()})
	_, err := lr.ReadLine(time.Second)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func closedChan() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

func TestNull(t *testing.T) {
	n := NewNull(10 * time.Millisecond)
	lr := NewLineReader(n)

	_, err := n.Write([]byte("G90\nG1 X1\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n.Lines())

	for i := 0; i < 2; i++ {
		s, err := lr.ReadLine(time.Second)
		require.NoError(t, err)
		assert.Equal(t, "ok", s)
	}
	_, err = lr.ReadLine(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = n.Write([]byte("G1 X2\n"))
	require.NoError(t, err)
	require.NoError(t, n.Flush())
	_, err = lr.ReadLine(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	_, err = n.Write([]byte("G1 X3\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestOpen(t *testing.T) {
	p, err := Open(Config{Name: NullName})
	require.NoError(t, err)
	assert.IsType(t, &Null{}, p)
	p.Close()

	_, err = Open(Config{Name: "/dev/does-not-exist", Baud: 1200})
	assert.ErrorIs(t, err, ErrBaud)

	assert.True(t, ValidBaud(57600))
	assert.True(t, ValidBaud(250000))
	assert.False(t, ValidBaud(14400))
}
