package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportFileName(t *testing.T) {
	day := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "conversation-2026-03-07.json", ExportFileName(day))
}

func TestValidateSnapshot(t *testing.T) {
	assert.NoError(t, ValidateSnapshot([]byte(`[]`)))
	assert.NoError(t, ValidateSnapshot([]byte(`[{"role":"user","content":""}]`)))

	err := ValidateSnapshot([]byte(`[{"role":"user","content":7}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation errors")

	assert.Error(t, ValidateSnapshot([]byte(``)))
}

func TestEncodeSnapshot(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = EncodeSnapshot([]Turn{UserTurn("hi")})
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"role\": \"user\",\n    \"content\": \"hi\"\n  }\n]", string(data))

	turns, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, []Turn{UserTurn("hi")}, turns)
}
