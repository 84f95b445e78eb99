package toolbar

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

var messages = catalog.NewBuilder(catalog.Fallback(language.English))

func init() {
	for msg, de := range map[string]string{
		"Request":            "Anfrage",
		"<no view>":          "<keine View>",
		"<unavailable>":      "<nicht verfügbar>",
		"View information":   "View-Informationen",
		"View function":      "View-Funktion",
		"Arguments":          "Argumente",
		"Keyword arguments":  "Keyword-Argumente",
		"URL name":           "URL-Name",
		"Cookies":            "Cookies",
		"No cookies":         "Keine Cookies",
		"Session data":       "Sitzungsdaten",
		"No session data":    "Keine Sitzungsdaten",
		"GET data":           "GET-Daten",
		"No GET data":        "Keine GET-Daten",
		"POST data":          "POST-Daten",
		"No POST data":       "Keine POST-Daten",
		"Variable":           "Variable",
		"Value":              "Wert",
		"Hide toolbar":       "Toolbar ausblenden",
		"Show toolbar":       "Toolbar einblenden",
		"Panel not found":    "Panel nicht gefunden",
		"Data for this panel isn't available anymore. Please reload the page and retry.": "Die Daten für dieses Panel sind nicht mehr verfügbar. Bitte laden Sie die Seite neu.",
	} {
		// SetString only fails on malformed messages
		if err := messages.SetString(language.English, msg, msg); err != nil {
			panic(err)
		}
		if err := messages.SetString(language.German, msg, de); err != nil {
			panic(err)
		}
	}
}

// LanguageFor picks the toolbar language for the request from its
// Accept-Language header. English is the fallback.
func LanguageFor(r *http.Request) language.Tag {
	if r == nil {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// T translates a toolbar message. Unknown messages are returned as given.
func T(lang language.Tag, msg string) string {
	p := message.NewPrinter(lang, message.Catalog(messages))
	// msg is a key, not a format
	return p.Sprintf(msg)
}
