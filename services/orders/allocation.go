package main

import (
	"sort"
	"strings"
)

// AllocationEngine distribui cada item do pedido entre os fornecedores
// pelo menor custo, usando o prazo de entrega como desempate.
// Não guarda estado, então pode ser usado concorrentemente.
type AllocationEngine struct{}

// NewAllocationEngine cria uma nova instância de AllocationEngine
func NewAllocationEngine() AllocationEngine {
	return AllocationEngine{}
}

// Allocate processa cada item de forma independente e concatena os resultados
// na ordem dos itens. quotesBySupplier vem na ordem de configuração dos fornecedores,
// que é mantida quando preço e prazo empatam.
func (AllocationEngine) Allocate(lines []OrderLine, quotesBySupplier [][]SupplierQuote) ([]Allocation, []Shortfall) {
	allocations := make([]Allocation, 0, len(lines))
	var shortfalls []Shortfall

	for _, line := range lines {
		candidates := availableQuotes(line.ProductID, quotesBySupplier)

		total := 0
		for _, q := range candidates {
			total += q.AvailableQty
		}

		if total < line.Quantity {
			shortfalls = append(shortfalls, NewShortfall(line.ProductID, line.Quantity, total))
			continue
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			if c := candidates[i].UnitPrice.Cmp(candidates[j].UnitPrice); c != 0 {
				return c < 0
			}
			return candidates[i].EtaDays < candidates[j].EtaDays
		})

		remaining := line.Quantity
		for _, q := range candidates {
			if remaining <= 0 {
				break
			}

			qty := min(remaining, q.AvailableQty)
			allocations = append(allocations, Allocation{
				ProductID:  line.ProductID,
				SupplierID: q.SupplierID,
				Quantity:   qty,
				UnitPrice:  q.UnitPrice,
				EtaDays:    q.EtaDays,
			})
			remaining -= qty
		}
	}

	return allocations, shortfalls
}

// availableQuotes retorna, para cada fornecedor, a primeira cotação do produto com estoque
func availableQuotes(productID string, quotesBySupplier [][]SupplierQuote) []SupplierQuote {
	out := make([]SupplierQuote, 0, len(quotesBySupplier))
	for _, quotes := range quotesBySupplier {
		for _, q := range quotes {
			if !strings.EqualFold(q.ProductID, productID) {
				continue
			}
			if q.AvailableQty > 0 {
				out = append(out, q)
			}
			break
		}
	}
	return out
}
