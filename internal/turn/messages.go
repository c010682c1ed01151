package turn

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

// Message keys for player-facing failures.
const (
	msgConfigMissing = "error.config_missing"
	msgNetwork       = "error.network"
	msgGenerator     = "error.generator"
)

var messageLanguages = []language.Tag{language.English, language.Portuguese, language.Spanish}

var (
	messageCatalog = newCatalog()
	messageMatcher = language.NewMatcher(messageLanguages)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.English, msgConfigMissing, "The Chronicle is silent: no generator key is configured. Set GEMINI_API_KEY or ANTHROPIC_API_KEY and restart.")
	set(language.English, msgNetwork, "The echoes could not reach the Chronicle. Check your connection and try again.")
	set(language.English, msgGenerator, "The Chronicle faltered while weaving your story. Try again.")

	set(language.Portuguese, msgConfigMissing, "A Crônica está em silêncio: nenhuma chave de gerador foi configurada. Defina GEMINI_API_KEY ou ANTHROPIC_API_KEY e reinicie.")
	set(language.Portuguese, msgNetwork, "Os ecos não alcançaram a Crônica. Verifique sua conexão e tente novamente.")
	set(language.Portuguese, msgGenerator, "A Crônica vacilou ao tecer sua história. Tente novamente.")

	set(language.Spanish, msgConfigMissing, "La Crónica guarda silencio: no hay clave de generador configurada. Define GEMINI_API_KEY o ANTHROPIC_API_KEY y reinicia.")
	set(language.Spanish, msgNetwork, "Los ecos no alcanzaron la Crónica. Revisa tu conexión e inténtalo de nuevo.")
	set(language.Spanish, msgGenerator, "La Crónica titubeó al tejer tu historia. Inténtalo de nuevo.")
	return b
}

// printerFor returns a printer for the closest supported language to lang.
func printerFor(lang string) *message.Printer {
	tag := language.English
	if t, err := language.Parse(lang); err == nil {
		_, idx, conf := messageMatcher.Match(t)
		if conf != language.No {
			tag = messageLanguages[idx]
		}
	}
	return message.NewPrinter(tag, message.Catalog(messageCatalog))
}

// failureMessage is the localized text shown for a failure of the given kind.
// Unusable responses read the same as any other generator failure.
func failureMessage(lang string, kind state.ErrorKind) string {
	key := msgGenerator
	switch kind {
	case state.ErrorKindConfig:
		key = msgConfigMissing
	case state.ErrorKindNetwork:
		key = msgNetwork
	}
	return printerFor(lang).Sprintf(key)
}
