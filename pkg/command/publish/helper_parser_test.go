package publish

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRemoteDirectory(t *testing.T) {
	for _, dir := range []string{"/srv/nginx/kb", "/kb", "relative/kb", "/srv/my site/kb"} {
		assert.NoError(t, validateRemoteDirectory(dir), dir)
	}

	for _, dir := range []string{"/var/www/html", "/data/kbx", "/srv/nginx/kb/", "kb", "/srv/xkb", "/srv/kb/html"} {
		err := validateRemoteDirectory(dir)
		require.Error(t, err, dir)
		assert.True(t, errors.Is(err, ErrUnsafeDestination), dir)
	}
}

func TestOnceValue(t *testing.T) {
	v := &onceValue{}
	require.NoError(t, v.Set("/srv/nginx/kb"))
	assert.Equal(t, "/srv/nginx/kb", v.String())
	assert.Error(t, v.Set("/srv/other/kb"))
	assert.Equal(t, "/srv/nginx/kb", v.String())

	assert.Equal(t, "/srv/nginx/kb", parseOnceValue(v))
	assert.Equal(t, "", parseOnceValue(nil))
	assert.Equal(t, "", parseOnceValue(&onceValue{value: "  "}))
}

func TestParseBuildCommand(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "  mdbook build  --dest-dir out ", want: []string{"mdbook", "build", "--dest-dir", "out"}},
		{raw: `mdbook build --dest-dir "my book"`, want: []string{"mdbook", "build", "--dest-dir", "my book"}},
		{raw: `mdbook build --dest-dir 'my book'`, want: []string{"mdbook", "build", "--dest-dir", "my book"}},
		{raw: `mdbook build --dest-dir my\ book`, want: []string{"mdbook", "build", "--dest-dir", "my book"}},
		{raw: `make "$TARGET"`, want: []string{"make", "$TARGET"}},
	}

	for _, tt := range tests {
		command, err := parseBuildCommand(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, command, tt.raw)
	}

	for _, raw := range []string{"   ", `mdbook build --dest-dir "my book`, `""`} {
		_, err := parseBuildCommand(raw)
		assert.Error(t, err, raw)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrUsage))
	assert.Equal(t, 1, ExitCode(ErrUserAborted))
	assert.Equal(t, 1, ExitCode(&TransferError{Step: "x", Err: errors.New("boom")}))
	assert.Equal(t, 7, ExitCode(&BuildError{ExitCode: 7, Err: errors.New("boom")}))
	assert.Equal(t, 1, ExitCode(&BuildError{Err: errors.New("boom")}))
}
