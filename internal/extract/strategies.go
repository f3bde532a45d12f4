package extract

// Strategy presets. Deep scans trade quota for coverage by running two
// differently-angled searches over the same niche and location; express runs
// a single combined pass.
var (
	DeepStrategies = []string{
		"Mapeamento Global: Google Maps + Redes Sociais + CNPJs",
		"Varredura Profunda: Diretórios de Transparência e Sites Oficiais",
	}
	ExpressStrategies = []string{
		"Busca Expressa: Contatos diretos e Localização",
	}
)

// Strategies returns the preset for the requested depth.
func Strategies(deep bool) []string {
	if deep {
		return append([]string(nil), DeepStrategies...)
	}
	return append([]string(nil), ExpressStrategies...)
}
