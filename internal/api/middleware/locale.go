package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/constants"
	"github.com/sheegull/deephand-forms/internal/i18n"
)

// Locale picks the message language from Accept-Language
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := i18n.Match(c.GetHeader("Accept-Language"))
		c.Set(constants.ContextKeyLocale, loc)
		c.Header("Content-Language", string(loc))
		c.Next()
	}
}

// LocaleFrom returns the locale chosen by Locale, or the default one
func LocaleFrom(c *gin.Context) i18n.Locale {
	if v, ok := c.Get(constants.ContextKeyLocale); ok {
		if loc, ok := v.(i18n.Locale); ok {
			return loc
		}
	}
	return i18n.DefaultLocale
}
