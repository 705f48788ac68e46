package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Una existencia negativa cuenta como cero: las unidades faltantes no tienen costo.
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual < 0 {
		stockActual = 0
	}
	stock := decimal.NewFromInt(stockActual)
	entrada := decimal.NewFromInt(cantEntrada)
	sum := stock.Add(entrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoActual
	}
	num := stock.Mul(costoActual).Add(entrada.Mul(costoEntrada))
	return num.DivRound(sum, 4)
}
