package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Error codes with catalog entries.
const (
	CodeGeneric      = "generic"
	CodeRequired     = "required"
	CodeBlank        = "blank"
	CodeTaken        = "taken"
	CodeInvalid      = "invalid"
	CodeTooShort     = "too_short"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeUnavailable  = "unavailable"
	CodeEmail        = "email"
	CodeTooManyRows  = "too_many_rows"
	// CodeInvalidCredentials is returned by the backend on a failed sign in.
	CodeInvalidCredentials = "invalid_credentials"
)

const keyPrefix = "error."

var errorMessages = map[string]map[language.Tag]string{
	CodeGeneric: {
		language.Spanish:    "Ocurrió un error. Inténtalo de nuevo.",
		language.Portuguese: "Ocorreu um erro. Tente novamente.",
		language.English:    "Something went wrong. Please try again.",
	},
	CodeRequired: {
		language.Spanish:    "Este campo es obligatorio.",
		language.Portuguese: "Este campo é obrigatório.",
		language.English:    "This field is required.",
	},
	CodeBlank: {
		language.Spanish:    "No puede estar vacío.",
		language.Portuguese: "Não pode ficar em branco.",
		language.English:    "Can't be blank.",
	},
	CodeTaken: {
		language.Spanish:    "Ya está en uso.",
		language.Portuguese: "Já está em uso.",
		language.English:    "Has already been taken.",
	},
	CodeInvalid: {
		language.Spanish:    "No es válido.",
		language.Portuguese: "Não é válido.",
		language.English:    "Is invalid.",
	},
	CodeTooShort: {
		language.Spanish:    "Es demasiado corto.",
		language.Portuguese: "É muito curto.",
		language.English:    "Is too short.",
	},
	CodeEmail: {
		language.Spanish:    "Debe ser un correo válido.",
		language.Portuguese: "Deve ser um e-mail válido.",
		language.English:    "Must be a valid email address.",
	},
	CodeInvalidCredentials: {
		language.Spanish:    "Usuario o contraseña incorrectos.",
		language.Portuguese: "Usuário ou senha incorretos.",
		language.English:    "Invalid username or password.",
	},
	CodeTooManyRows: {
		language.Spanish:    "Hay demasiados registros. Aplica un filtro e inténtalo de nuevo.",
		language.Portuguese: "Há registros demais. Aplique um filtro e tente novamente.",
		language.English:    "Too many records. Apply a filter and try again.",
	},
	CodeNotFound: {
		language.Spanish:    "El registro no existe.",
		language.Portuguese: "O registro não existe.",
		language.English:    "The record does not exist.",
	},
	CodeUnauthorized: {
		language.Spanish:    "Tu sesión expiró. Ingresa nuevamente.",
		language.Portuguese: "Sua sessão expirou. Entre novamente.",
		language.English:    "Your session expired. Please sign in again.",
	},
	CodeForbidden: {
		language.Spanish:    "No tienes permiso para esta acción.",
		language.Portuguese: "Você não tem permissão para esta ação.",
		language.English:    "You are not allowed to do that.",
	},
	CodeUnavailable: {
		language.Spanish:    "El servidor no está disponible.",
		language.Portuguese: "O servidor não está disponível.",
		language.English:    "The server is unavailable.",
	},
}

// Translator looks up error-code messages.
type Translator struct {
	catalog catalog.Catalog
}

// NewTranslator builds the error catalog.
func NewTranslator() *Translator {
	builder := catalog.NewBuilder(catalog.Fallback(supported[0]))
	for code, byLang := range errorMessages {
		for tag, msg := range byLang {
			_ = builder.SetString(tag, keyPrefix+code, msg)
		}
	}
	return &Translator{catalog: builder}
}

// Has reports whether code has a catalog entry.
func (t *Translator) Has(code string) bool {
	_, ok := errorMessages[code]
	return ok
}

// Error translates code into lang. Unknown codes yield fallback when given,
// otherwise the generic message.
func (t *Translator) Error(lang, code, fallback string) string {
	if !t.Has(code) {
		if fallback != "" {
			return fallback
		}
		code = CodeGeneric
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = supported[0]
	}
	tag, _, _ = matcher.Match(tag)
	printer := message.NewPrinter(tag, message.Catalog(t.catalog))
	return printer.Sprintf(keyPrefix + code)
}
