package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" roster/cycle ":  "roster_cycle",
		"link..session":   "link.session",
		"multi  space":    "multi__space",
		".session.tick.": "session.tick",
	}

	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), input)
	}
}

func TestFormatTagsSortedAndTrimmed(t *testing.T) {
	t.Parallel()

	got := formatTags(map[string]string{
		"result":  " success ",
		"":        "ignored",
		" page ":  "2",
	})
	assert.Equal(t, "page:2,result:success", got)
	assert.Empty(t, formatTags(nil))
}

func TestJoinTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", joinTags("", ""))
	assert.Equal(t, "|#env:prod", joinTags("env:prod", ""))
	assert.Equal(t, "|#a:1", joinTags("", "a:1"))
	assert.Equal(t, "|#env:prod,a:1", joinTags("env:prod", "a:1"))
}

func TestClientWritesDatagrams(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{
		Address:    pc.LocalAddr().String(),
		Prefix:     "guardlink.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()

	client.Count("roster.cycle", 1, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	line := string(buf[:n])
	assert.True(t, strings.HasPrefix(line, "guardlink.roster.cycle:1|c"), line)
	assert.Contains(t, line, "|#env:test,result:success")
}

func TestClosedClientDropsWrites(t *testing.T) {
	var c *Client
	c.Gauge("x", 1, nil)
	require.NoError(t, c.Close())
}

func TestNewClientRequiresAddress(t *testing.T) {
	_, err := NewClient(Config{Address: "  "})
	require.Error(t, err)
}
