package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prodpilot/prodpilot/app/core"
	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
)

func TestQueryRejectsEmptyQuery(t *testing.T) {
	// a zero-value core has no stores and no ai driver wired, so any
	// lookup or embedding call would panic. The guard must fire first.
	logic := NewQueryLogic(context.Background(), &core.Core{})

	for _, query := range []string{"", "   ", "\t\n  "} {
		res, err := logic.Query("kb-id", query, 10)
		assert.Nil(t, res)
		assert.Error(t, err)

		customized, ok := err.(*errors.CustomizedError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, customized.GetCode())
		assert.Equal(t, i18n.ERROR_INVALID_QUERY, customized.Message())
	}
}
