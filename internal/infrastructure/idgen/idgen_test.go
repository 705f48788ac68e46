package idgen_test

import (
	"regexp"
	"testing"

	"github.com/jhoicas/stockledger/internal/infrastructure/idgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence_Creciente(t *testing.T) {
	g, err := idgen.New(1)
	require.NoError(t, err)

	prev := g.NextSequence()
	for i := 0; i < 5000; i++ {
		next := g.NextSequence()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNumber_Formato(t *testing.T) {
	re := regexp.MustCompile(`^PO-[0-9A-F]{8}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, re, idgen.Number("PO"))
	}
}

func TestNew_NodoInvalido(t *testing.T) {
	_, err := idgen.New(5000)
	assert.Error(t, err)
}
