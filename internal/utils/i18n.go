package utils

// Server-side messages. Question texts stay in Portuguese; only status and
// error strings plus profile descriptions are translated. The Portuguese
// profile descriptions live with the profiles themselves, so only other
// locales carry "profile.*" keys.

var translations = map[string]map[string]string{
	"pt": {
		"health.ok":                "ok",
		"error.persistence":        "Estatísticas indisponíveis no momento. Tente novamente mais tarde.",
		"error.validation":         "Dados inválidos.",
		"error.not_found":          "Registro não encontrado.",
		"error.conflict":           "Registro já existente.",
		"error.unauthorized":       "Acesso não autorizado.",
		"error.unsupported_format": "Formato de exportação não suportado.",
		"error.internal":           "Erro interno.",
		"response.saved":           "Resposta registrada com sucesso.",
		"responses.cleared":        "Todas as respostas foram removidas.",
		"stats.empty":              "Aguardando respostas.",
	},
	"en": {
		"health.ok":                "ok",
		"error.persistence":        "Statistics are unavailable right now. Please try again later.",
		"error.validation":         "Invalid input.",
		"error.not_found":          "Not found.",
		"error.conflict":           "Already exists.",
		"error.unauthorized":       "Unauthorized.",
		"error.unsupported_format": "Unsupported export format.",
		"error.internal":           "Internal error.",
		"response.saved":           "Response saved.",
		"responses.cleared":        "All responses were removed.",
		"stats.empty":              "Awaiting responses.",
		"profile.oblivious":        "Little exposure to or awareness of bullying. Learning more about it and how it affects the people around you is a good next step.",
		"profile.cautious":         "You recognise the problem but still hesitate to act. Small steps, like talking to the target or asking for help, already make a difference.",
		"profile.active":           "Proactive stance with strong empathy and engagement against bullying. Keep inspiring those around you.",
		"profile.out_of_range":     "The score fell outside the expected ranges. Review your answers and try again.",
	},
}

// Lookup returns the string for key in locale without any fallback.
func Lookup(locale, key string) (string, bool) {
	v, ok := translations[locale][key]
	return v, ok
}

// T returns the translated string for key in locale, falling back to the
// default locale and then to the key itself.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := translations[DefaultLocale][key]; ok {
		return v
	}
	return key
}
