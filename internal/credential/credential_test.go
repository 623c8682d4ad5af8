package credential

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metcalfc/simplyread/internal/errors"
)

func TestBrokerCachesFirstKey(t *testing.T) {
	var calls atomic.Int32
	b := NewBroker(SourceFunc(func(context.Context) (string, error) {
		calls.Add(1)
		return "k-1", nil
	}))

	for i := 0; i < 3; i++ {
		k, err := b.Key(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "k-1", k)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, b.Cached())
}

func TestBrokerRetriesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	b := NewBroker(SourceFunc(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", nil
		}
		return "k-2", nil
	}))

	_, err := b.Key(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoKey))
	assert.False(t, b.Cached())

	k, err := b.Key(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k-2", k)
}

func TestBrokerSharesConcurrentFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	b := NewBroker(SourceFunc(func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}))

	var wg sync.WaitGroup
	keys := make([]string, 4)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keys[i], _ = b.Key(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, k := range keys {
		assert.Equal(t, "shared", k)
	}
}

func TestEnvSource(t *testing.T) {
	t.Setenv("SR_TEST_A", "")
	t.Setenv("SR_TEST_B", " from-b ")

	k, err := EnvSource{"SR_TEST_A", "SR_TEST_B"}.FetchKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-b", k)

	_, err = EnvSource{"SR_TEST_A"}.FetchKey(context.Background())
	assert.True(t, errors.Is(err, ErrNoKey))
}

func TestStaticSource(t *testing.T) {
	k, err := StaticSource("abc").FetchKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", k)

	_, err = StaticSource("  ").FetchKey(context.Background())
	assert.True(t, errors.Is(err, ErrNoKey))
}

func TestChain(t *testing.T) {
	failing := SourceFunc(func(context.Context) (string, error) { return "", errors.New("helper exploded") })
	c := Chain{StaticSource(""), failing, StaticSource("third")}
	k, err := c.FetchKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "third", k)

	_, err = Chain{StaticSource(""), failing}.FetchKey(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoKey))
}

func TestServe(t *testing.T) {
	var out bytes.Buffer
	err := Serve(context.Background(), strings.NewReader(`{"action":"getAPIKey"}`), &out, StaticSource("secret"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"apiKey":"secret"}`, out.String())

	out.Reset()
	err = Serve(context.Background(), strings.NewReader(`{"action":"getAPIKey"}`), &out, StaticSource(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"apiKey":""}`, out.String())

	err = Serve(context.Background(), strings.NewReader(`{"action":"launch"}`), &out, StaticSource("x"))
	assert.Error(t, err)
}

func TestHelperSource(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "helper.sh")
	body := "#!/bin/sh\ncat >/dev/null\necho '{\"apiKey\": \"from-helper\"}'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	k, err := HelperSource{Command: script}.FetchKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-helper", k)

	empty := filepath.Join(dir, "empty.sh")
	require.NoError(t, os.WriteFile(empty, []byte("#!/bin/sh\ncat >/dev/null\necho '{}'\n"), 0o755))
	_, err = HelperSource{Command: empty}.FetchKey(context.Background())
	assert.True(t, errors.Is(err, ErrNoKey))

	_, err = HelperSource{Command: `"unterminated`}.FetchKey(context.Background())
	assert.Error(t, err)

	_, err = HelperSource{}.FetchKey(context.Background())
	assert.True(t, errors.Is(err, ErrNoKey))
}
