package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Messages is the catalog of user-visible strings rendered by the session
// controller. Callers may override any entry.
type Messages struct {
	UsernameRequired     string
	PasswordRequired     string
	EmailRequired        string
	IncorrectCredentials string
	UnknownLoginError    string
	RegisterFailed       string
	LoggedOut            string
	Unreachable          string

	LoadingSession  string
	LoadingLogin    string
	LoadingRegister string
}

// Catalog keys registered with x/text/message.
const (
	msgUsernameRequired     = "session.username_required"
	msgPasswordRequired     = "session.password_required"
	msgEmailRequired        = "session.email_required"
	msgIncorrectCredentials = "session.incorrect_credentials"
	msgUnknownLoginError    = "session.unknown_login_error"
	msgRegisterFailed       = "session.register_failed"
	msgLoggedOut            = "session.logged_out"
	msgUnreachable          = "session.unreachable"
	msgLoadingSession       = "session.loading"
	msgLoadingLogin         = "session.loading_login"
	msgLoadingRegister      = "session.loading_register"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		msgUsernameRequired:     "A username is required.",
		msgPasswordRequired:     "A password is required.",
		msgEmailRequired:        "An email address is required.",
		msgIncorrectCredentials: "Incorrect username or password.",
		msgUnknownLoginError:    "An unknown error occurred.",
		msgRegisterFailed:       "Something went wrong, even though no register errors are defined yet!",
		msgLoggedOut:            "You have been logged out",
		msgUnreachable:          "Unable to reach the server.",
		msgLoadingSession:       "loading...",
		msgLoadingLogin:         "logging in...",
		msgLoadingRegister:      "creating account...",
	},
	language.Spanish: {
		msgUsernameRequired:     "Se requiere un nombre de usuario.",
		msgPasswordRequired:     "Se requiere una contraseña.",
		msgEmailRequired:        "Se requiere una dirección de correo.",
		msgIncorrectCredentials: "Usuario o contraseña incorrectos.",
		msgUnknownLoginError:    "Ocurrió un error desconocido.",
		msgRegisterFailed:       "Algo salió mal al crear la cuenta.",
		msgLoggedOut:            "Has cerrado sesión",
		msgUnreachable:          "No se pudo contactar al servidor.",
		msgLoadingSession:       "cargando...",
		msgLoadingLogin:         "iniciando sesión...",
		msgLoadingRegister:      "creando cuenta...",
	},
}

// catalogTags lists the registered locales; the first one is the fallback.
var catalogTags = []language.Tag{language.English, language.Spanish}

var catalogMatcher = language.NewMatcher(catalogTags)

func init() {
	for tag, entries := range translations {
		for key, text := range entries {
			_ = message.SetString(tag, key, text)
		}
	}
}

// DefaultMessages returns the English catalog.
func DefaultMessages() Messages {
	return messagesIn(language.English)
}

// MessagesFor picks the catalog that best matches the given language
// preferences (e.g. "es-MX", "en-US,en;q=0.8"). English is the fallback.
func MessagesFor(prefs ...string) Messages {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	_, idx, conf := catalogMatcher.Match(tags...)
	if conf == language.No {
		return DefaultMessages()
	}
	return messagesIn(catalogTags[idx])
}

func messagesIn(tag language.Tag) Messages {
	p := message.NewPrinter(tag)
	return Messages{
		UsernameRequired:     p.Sprintf(msgUsernameRequired),
		PasswordRequired:     p.Sprintf(msgPasswordRequired),
		EmailRequired:        p.Sprintf(msgEmailRequired),
		IncorrectCredentials: p.Sprintf(msgIncorrectCredentials),
		UnknownLoginError:    p.Sprintf(msgUnknownLoginError),
		RegisterFailed:       p.Sprintf(msgRegisterFailed),
		LoggedOut:            p.Sprintf(msgLoggedOut),
		Unreachable:          p.Sprintf(msgUnreachable),
		LoadingSession:       p.Sprintf(msgLoadingSession),
		LoadingLogin:         p.Sprintf(msgLoadingLogin),
		LoadingRegister:      p.Sprintf(msgLoadingRegister),
	}
}
