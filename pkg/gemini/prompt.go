package gemini

import (
	"fmt"
	"strings"

	"github.com/winnerlabs/leadminer/internal/model"
)

// systemPrompt instructs the model to emit the delimiter format the parser
// consumes. The field labels here and in parser.DefaultConfig must match.
func systemPrompt(q model.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você é um extrator de leads. Localize empresas reais de %q em %q.\n", q.Niche, q.Location)
	if q.Strategy != "" {
		fmt.Fprintf(&b, "Estratégia desta busca: %s.\n", q.Strategy)
	}
	b.WriteString(`Retorne o máximo de resultados que encontrar. Nunca invente dados; use N/A quando um campo não for encontrado. Use exatamente o formato:
---
Nome: [Nome]
CNPJ: [CNPJ ou N/A]
Telefone: [DDD + Número ou N/A]
Email: [Email ou N/A]
Endereço: [Endereço ou N/A]
Avaliação: [Nota no Google ou N/A]
Site: [URL ou N/A]
Instagram: [Perfil ou N/A]
Facebook: [Página ou N/A]
---`)
	return b.String()
}

func userPrompt(q model.Query) string {
	prompt := fmt.Sprintf("Lista de empresas: %s em %s", q.Niche, q.Location)
	if q.Lat != nil && q.Lng != nil {
		prompt += fmt.Sprintf(" (próximo de %.5f,%.5f)", *q.Lat, *q.Lng)
	}
	return prompt
}
