// Package idgen genera la secuencia de transacciones (snowflake) y los números de documento.
package idgen

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Generator combina un nodo snowflake con la generación de números "PREFIJO-XXXXXXXX".
type Generator struct {
	node *snowflake.Node
}

// New crea el generador para el nodo indicado (0..1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("idgen: init snowflake: %w", err)
	}
	return &Generator{node: node}, nil
}

// NextSequence devuelve un entero estrictamente creciente dentro del proceso.
func (g *Generator) NextSequence() int64 {
	return g.node.Generate().Int64()
}

// Number devuelve prefix + "-" + 8 dígitos hexadecimales en mayúscula. No garantiza unicidad:
// el llamador reintenta ante conflicto.
func (g *Generator) Number(prefix string) string {
	return Number(prefix)
}

// Number ver Generator.Number.
func Number(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:8])
}
