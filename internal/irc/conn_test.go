package irc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_SendAndReceive(t *testing.T) {
	client, server := net.Pipe()
	c := NewConn(client)
	defer c.Close()

	go func() {
		_ = c.Send(Nick("bot"))
	}()
	line, err := bufio.NewReader(server).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "NICK bot\r\n", line)

	go func() {
		_, _ = server.Write([]byte("PING :x\r\n"))
	}()
	chunk, err := c.Receive()
	require.NoError(t, err)
	assert.Equal(t, "PING :x\r\n", string(chunk))

	require.NoError(t, server.Close())
	_, err = c.Receive()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestConn_ReceiveIsBoundedByBuffer(t *testing.T) {
	client, server := net.Pipe()
	c := NewConn(client)
	defer c.Close()

	big := strings.Repeat("a", ReadBufferSize+10)
	go func() {
		_, _ = server.Write([]byte(big))
	}()
	chunk, err := c.Receive()
	require.NoError(t, err)
	assert.Len(t, chunk, ReadBufferSize)
	_ = server.Close()
}

func TestConn_CloseOnceAndStreamError(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	c := NewConn(client)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Receive()
	assert.ErrorIs(t, err, ErrStream)
	assert.ErrorIs(t, c.Send("PING x"), ErrStream)
}

func TestDial_ConnectError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), addr, time.Second)
	assert.ErrorIs(t, err, ErrConnect)
}
