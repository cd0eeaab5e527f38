package i18n

import (
	"testing"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")

	if got := l.Get("en", ERROR_INVALID_CONFIG); got == ERROR_INVALID_CONFIG {
		t.Fatalf("expected en message for %s, got raw id", ERROR_INVALID_CONFIG)
	}
	if got := l.Get("zh-CN", ERROR_INVALID_QUERY); got == ERROR_INVALID_QUERY {
		t.Fatalf("expected zh-CN message for %s, got raw id", ERROR_INVALID_QUERY)
	}

	// unknown language falls back to the raw id
	if got := l.Get("fr", ERROR_INTERNAL); got != ERROR_INTERNAL {
		t.Fatalf("expected raw id for unknown lang, got %s", got)
	}
}
