package platform

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyFromGOOS(t *testing.T) {
	tests := []struct {
		name string
		goos string
		want Family
	}{
		{"linux", "linux", Linux},
		{"darwin maps to macos", "darwin", MacOS},
		{"windows", "windows", Windows},
		{"freebsd falls through", "freebsd", Other},
		{"empty falls through", "", Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FamilyFromGOOS(tt.goos))
		})
	}
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "linux", Linux.String())
	assert.Equal(t, "macos", MacOS.String())
	assert.Equal(t, "windows", Windows.String())
	assert.Equal(t, "other", Other.String())
	assert.Equal(t, "other", Family(99).String())
}

func TestFamilyTextRoundtrip(t *testing.T) {
	for _, f := range []Family{Other, Linux, MacOS, Windows} {
		text, err := f.MarshalText()
		require.NoError(t, err)

		var got Family
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, f, got)
	}

	var f Family
	assert.Error(t, f.UnmarshalText([]byte("beos")))
}

func TestDetect(t *testing.T) {
	info := Detect(context.Background())

	assert.Equal(t, FamilyFromGOOS(runtime.GOOS), info.Family)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Architecture)
	assert.Greater(t, info.CPUCount, 0)
	assert.False(t, info.DetectedAt.IsZero())
}

func TestRunnerRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on unix tools")
	}

	r := NewRunner()

	out, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestRunnerRun_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on unix tools")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := NewRunner()
	_, err := r.Run(ctx, "sleep", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunnerRun_NotFound(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), "watchcat-no-such-binary")
	assert.Error(t, err)
}
