package json

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal(`{"a":"b"}`, Stringify(map[string]string{"a": "b"}))

	assert.Equal(`{
	"a": "b"
}`, Stringify(map[string]string{"a": "b"}, true))
}

func TestJSONError(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	assert.Equal(`<error:json: unsupported type: func(io.Reader) io.ReadCloser>`, Stringify(io.NopCloser))
}

func TestReadFile(t *testing.T) {
	assert := assert.New(t)
	fn := filepath.Join(t.TempDir(), "obj.json")
	assert.NoError(os.WriteFile(fn, []byte(`{"a":"b"}`), 0600))
	var out map[string]string
	assert.NoError(ReadFile(fn, &out))
	assert.Equal("b", out["a"])
	assert.Error(ReadFile(filepath.Join(t.TempDir(), "missing.json"), &out))
}
