package dataprocessing

// ColumnMapping renames the export's Portuguese headers to identifier-style
// names. Headers not listed pass through unchanged.
var ColumnMapping = map[string]string{
	"Data Criacao":         "data_criacao",
	"VTA PK":               "vta_pk",
	"Raiz":                 "raiz",
	"Tíquete Referência":   "tiquete_referencia",
	"Tipo de Bilhete":      "tipo_de_bilhete",
	"Tipo de Alarme":       "tipo_de_alarme",
	"Tipo de Afetação":     "tipo_de_afetacao",
	"Tipo TA":              "tipo_ta",
	"Tipo de Planta":       "tipo_de_planta",
	"Código Localidade":    "codigo_localidade",
	"Sigla Estado":         "sigla_estado",
	"Sigla Município":      "sigla_municipio",
	"Nome Município":       "nome_municipio",
	"Bairro":               "bairro",
	"Código Site":          "codigo_site",
	"Sigla Site V2":        "sigla_site_v2",
	"Empresa Manutenção":   "empresa_manutencao",
	"Grupo Responsavel":    "grupo_responsavel",
	"Status":               "status",
	"Data de Baixa":        "data_de_baixa",
	"Data Encerramento":    "data_encerramento",
	"Observação Histórico": "observacao_historico",
}

// Columns inserted at the front of every normalized table.
const (
	LoadDateColumn     = "load_date"
	LoadDateTimeColumn = "load_datetime"
)

// DateColumns are parsed as dates and rendered with ISODateTimeLayout.
var DateColumns = []string{"data_criacao", "data_de_baixa", "data_encerramento"}

// IdentifierColumns hold integer keys that the reader may surface as floats.
var IdentifierColumns = []string{"vta_pk", "raiz", "codigo_localidade"}

// Layouts used across the package.
const (
	// FilenameTimestampLayout matches the DDMMYY_HHMM token in export filenames
	FilenameTimestampLayout = "020106_1504"
	ISODateTimeLayout       = "2006-01-02 15:04:05"
	DisplayDateLayout       = "2006-01-02"
	DisplayDateTimeLayout   = "2006-01-02 15:04"
)

// SourceDateLayouts are tried in order when a date cell holds text. The
// export is Brazilian, so slash and dash dates are read day first:
// "01/02/2024" is 1 February and "12/31/2024" does not parse.
var SourceDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"02-01-2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// MissingLiterals are the textual encodings of "no value" collapsed into the
// missing marker.
var MissingLiterals = map[string]struct{}{
	"":     {},
	"nan":  {},
	"None": {},
	"NaT":  {},
}

// missingText is what a missing cell stringifies to before the second
// substitution pass removes it again.
const missingText = "None"
