package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, ExtractJSON(`{"a":1}`))
	})

	t.Run("fenced with prose", func(t *testing.T) {
		raw := "Aquí tienes la propuesta:\n```json\n{\"title\": \"Fallo de login\"}\n```\nEspero que sirva."
		assert.Equal(t, `{"title": "Fallo de login"}`, ExtractJSON(raw))
	})

	t.Run("nested objects", func(t *testing.T) {
		raw := `{"outer": {"inner": {"deep": true}}} trailing`
		assert.Equal(t, `{"outer": {"inner": {"deep": true}}}`, ExtractJSON(raw))
	})

	t.Run("braces inside string literals", func(t *testing.T) {
		raw := `{"text": "llaves {dentro} de cadena"}`
		assert.Equal(t, raw, ExtractJSON(raw))
	})

	t.Run("escaped quote inside string", func(t *testing.T) {
		raw := `{"text": "dijo \"hola\" y {algo}"}`
		assert.Equal(t, raw, ExtractJSON(raw))
	})

	t.Run("no object", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSON("no hay json aquí"))
	})

	t.Run("unbalanced object", func(t *testing.T) {
		assert.Equal(t, "", ExtractJSON(`{"title": "truncated`))
	})
}

func TestExtractText(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		assert.Equal(t, "SI", ExtractText("  SI \n"))
	})

	t.Run("fenced text", func(t *testing.T) {
		assert.Equal(t, "NO", ExtractText("```\nNO\n```"))
	})

	t.Run("fenced with language tag", func(t *testing.T) {
		assert.Equal(t, "hola", ExtractText("```text\nhola\n```"))
	})
}
