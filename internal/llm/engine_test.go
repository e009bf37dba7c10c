package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		TokenDelay:          time.Millisecond,
		ArtifactLoadLatency: 2 * time.Millisecond,
		DemoLoadLatency:     time.Millisecond,
	}
}

func loadedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine := NewEngine(testConfig(), opts...)
	require.NoError(t, engine.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing")))
	return engine
}

func TestLoadModel(t *testing.T) {
	t.Run("demo mode when artifact is missing", func(t *testing.T) {
		engine := NewEngine(testConfig())
		assert.Equal(t, StatusUnloaded, engine.Status())

		err := engine.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing"))
		require.NoError(t, err)
		assert.True(t, engine.IsLoaded())
		assert.Empty(t, engine.LastError())
	})

	t.Run("real artifact", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "model.safetensors")
		require.NoError(t, os.WriteFile(path, []byte("weights"), 0o600))

		engine := NewEngine(testConfig())
		require.NoError(t, engine.LoadModel(context.Background(), path))
		assert.True(t, engine.IsLoaded())
		assert.Equal(t, path, engine.ModelPath())
	})

	t.Run("required artifact missing", func(t *testing.T) {
		cfg := testConfig()
		cfg.RequireArtifact = true
		engine := NewEngine(cfg)

		err := engine.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing"))
		require.ErrorIs(t, err, ErrModelNotFound)
		assert.False(t, engine.IsLoaded())
		assert.Contains(t, engine.LastError(), "not found")
	})

	t.Run("cancelled load leaves engine unloaded", func(t *testing.T) {
		cfg := testConfig()
		cfg.DemoLoadLatency = time.Second
		engine := NewEngine(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := engine.LoadModel(ctx, "")
		require.ErrorIs(t, err, ErrModelLoadFailed)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StatusUnloaded, engine.Status())
		assert.NotEmpty(t, engine.LastError())
	})
}

func TestUnload(t *testing.T) {
	engine := loadedEngine(t)

	stream, err := engine.Generate(context.Background(), "passport")
	require.NoError(t, err)
	require.True(t, stream.Next(context.Background()))

	engine.Unload()
	assert.Equal(t, StatusUnloaded, engine.Status())
	assert.Empty(t, engine.Tokens())
	assert.False(t, stream.Next(context.Background()))
	assert.ErrorIs(t, stream.Err(), ErrGenerationCancelled)

	_, err = engine.Generate(context.Background(), "passport")
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestUnloadDuringLoad(t *testing.T) {
	cfg := testConfig()
	cfg.DemoLoadLatency = 50 * time.Millisecond
	engine := NewEngine(cfg)

	done := make(chan error, 1)
	go func() {
		done <- engine.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing"))
	}()

	require.Eventually(t, func() bool {
		return engine.Status() == StatusLoading
	}, time.Second, time.Millisecond)
	engine.Unload()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrModelLoadFailed)
	case <-time.After(time.Second):
		t.Fatal("load did not finish")
	}
	assert.Equal(t, StatusUnloaded, engine.Status())
	assert.False(t, engine.IsLoaded())
	assert.Empty(t, engine.ModelPath())

	require.NoError(t, engine.LoadModel(context.Background(), filepath.Join(t.TempDir(), "missing")))
	assert.True(t, engine.IsLoaded())
}

func TestGenerateRequiresLoadedModel(t *testing.T) {
	engine := NewEngine(testConfig())

	stream, err := engine.Generate(context.Background(), "hello")
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrModelNotLoaded)
}

func TestGenerateStreamsInOrder(t *testing.T) {
	prompts := []string{
		"I want to renew my driving license",
		"عندك إشعار من التنبيه الاستباقي: تنبيه استباقي",
		"passport renewal",
		"تجديد الهوية الوطنية",
		"hello",
	}

	for _, prompt := range prompts {
		t.Run(prompt, func(t *testing.T) {
			engine := loadedEngine(t)

			stream, err := engine.Generate(context.Background(), prompt)
			require.NoError(t, err)

			var observed []string
			for stream.Next(context.Background()) {
				observed = append(observed, stream.Token())
				// token i is in the buffer before token i+1 is produced
				assert.Equal(t, observed, engine.Tokens())
			}
			require.NoError(t, stream.Err())

			expected, _ := KeywordResponder{}.Respond(context.Background(), prompt)
			assert.Equal(t, expected, observed)
			assert.Equal(t, observed, engine.Tokens())
		})
	}
}

func TestStreamIsNotRestartable(t *testing.T) {
	engine := loadedEngine(t)

	stream, err := engine.Generate(context.Background(), "passport")
	require.NoError(t, err)

	tokens, err := stream.Collect(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	assert.True(t, stream.Done())

	assert.False(t, stream.Next(context.Background()))
	rest, err := stream.Collect(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, rest)
}

func TestCancelMidStream(t *testing.T) {
	engine := loadedEngine(t)

	stream, err := engine.Generate(context.Background(), "driving license")
	require.NoError(t, err)

	var observed []string
	for i := 0; i < 3 && stream.Next(context.Background()); i++ {
		observed = append(observed, stream.Token())
	}
	engine.Cancel()

	assert.False(t, stream.Next(context.Background()))
	assert.ErrorIs(t, stream.Err(), ErrGenerationCancelled)

	full, _ := KeywordResponder{}.Respond(context.Background(), "driving license")
	assert.Len(t, observed, 3)
	assert.Equal(t, full[:3], observed)
	assert.Equal(t, observed, engine.Tokens())
}

func TestNewGenerationCancelsPrevious(t *testing.T) {
	engine := loadedEngine(t)

	first, err := engine.Generate(context.Background(), "passport")
	require.NoError(t, err)
	require.True(t, first.Next(context.Background()))

	second, err := engine.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, engine.Tokens())

	assert.False(t, first.Next(context.Background()))
	assert.ErrorIs(t, first.Err(), ErrGenerationCancelled)

	tokens, err := second.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tokens, engine.Tokens())
}

func TestConsumerContextCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.TokenDelay = time.Second
	engine := NewEngine(cfg)
	require.NoError(t, engine.LoadModel(context.Background(), ""))

	stream, err := engine.Generate(context.Background(), "hello")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.False(t, stream.Next(ctx))
	assert.ErrorIs(t, stream.Err(), ErrGenerationCancelled)
	assert.ErrorIs(t, stream.Err(), context.DeadlineExceeded)
	assert.Empty(t, engine.Tokens())
}

func TestResponderFailure(t *testing.T) {
	boom := errors.New("boom")
	engine := loadedEngine(t, WithResponder(ResponderFunc(func(context.Context, string) ([]string, error) {
		return nil, boom
	})))

	stream, err := engine.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.False(t, stream.Next(context.Background()))
	assert.ErrorIs(t, stream.Err(), ErrGenerationFailed)
	assert.ErrorIs(t, stream.Err(), boom)
}

func TestStreamAll(t *testing.T) {
	engine := loadedEngine(t)

	stream, err := engine.Generate(context.Background(), "passport")
	require.NoError(t, err)

	var b strings.Builder
	for tok, err := range stream.All(context.Background()) {
		require.NoError(t, err)
		b.WriteString(tok)
	}
	assert.Equal(t, strings.Join(engine.Tokens(), ""), b.String())
}
