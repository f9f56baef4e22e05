package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOrder(t *testing.T) {
	assert.Equal(t, "pt", Resolve("pt", "en-US", ""))
	assert.Equal(t, "en", Resolve("", "en-US,en;q=0.9", ""))
	assert.Equal(t, "pt", Resolve("", "pt-BR", ""))
	assert.Equal(t, "en", Resolve("xx", "", "en"))
	assert.Equal(t, "es", Resolve("", "de-DE", ""))
	assert.Equal(t, "es", Resolve("", "", ""))
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{"es", "pt", "en"}, Supported())
	assert.True(t, IsSupported("EN"))
	assert.False(t, IsSupported("fr"))
	assert.Equal(t, "es", Default())
}

func TestLanguageContext(t *testing.T) {
	assert.Equal(t, "es", FromContext(context.Background()))
	assert.Equal(t, "pt", FromContext(WithLanguage(context.Background(), "pt")))
}

func TestTranslatorMessages(t *testing.T) {
	tr := NewTranslator()
	assert.Equal(t, "Has already been taken.", tr.Error("en", CodeTaken, ""))
	assert.Equal(t, "Ya está en uso.", tr.Error("es", CodeTaken, ""))
	assert.Equal(t, "Já está em uso.", tr.Error("pt", CodeTaken, ""))
}

func TestTranslatorFallbacks(t *testing.T) {
	tr := NewTranslator()
	assert.Equal(t, "custom detail", tr.Error("en", "weird_code", "custom detail"))
	assert.Equal(t, "Something went wrong. Please try again.", tr.Error("en", "weird_code", ""))
	assert.Equal(t, "Ocurrió un error. Inténtalo de nuevo.", tr.Error("zz-invalid-@", CodeGeneric, ""))
}
