package consolidacao

import (
	"regexp"
	"strings"
	"time"
)

// mesesPtEn traduz abreviações de mês em pt-BR para o layout inglês do pacote time.
var mesesPtEn = map[string]string{
	"jan": "Jan", "fev": "Feb", "mar": "Mar", "abr": "Apr",
	"mai": "May", "jun": "Jun", "jul": "Jul", "ago": "Aug",
	"set": "Sep", "out": "Oct", "nov": "Nov", "dez": "Dec",
}

var periodoRegex = regexp.MustCompile(`^(\p{L}{3})/(\d{2})$`)

// layoutPeriodo interpreta anos de 2 dígitos com pivô fixo: 00-68 => 20xx, 69-99 => 19xx.
const layoutPeriodo = "Jan/06"

// ConverterDataPtBr converte um token "mmm/aa" (ex: "fev/24") no primeiro dia do mês.
// Retorna false quando o token não tem o formato de período.
func ConverterDataPtBr(mesAno string) (time.Time, bool) {
	m := periodoRegex.FindStringSubmatch(strings.TrimSpace(mesAno))
	if m == nil {
		return time.Time{}, false
	}
	mes := strings.ToLower(m[1])
	mesEn, ok := mesesPtEn[mes]
	if !ok {
		mesEn = mes
	}
	t, err := time.Parse(layoutPeriodo, mesEn+"/"+m[2])
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
}

// FormatarData formata a competência como "Jan/24"; data zero vira string vazia.
func FormatarData(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layoutPeriodo)
}
