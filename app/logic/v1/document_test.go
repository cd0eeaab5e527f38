package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prodpilot/prodpilot/pkg/errors"
	"github.com/prodpilot/prodpilot/pkg/i18n"
	"github.com/prodpilot/prodpilot/pkg/types"
)

func TestEnsureReprocessableRejectsProcessing(t *testing.T) {
	err := ensureReprocessable(&types.Document{
		ID:     "doc-1",
		Status: types.DOCUMENT_STATUS_PROCESSING,
	})
	assert.Error(t, err)

	customized, ok := err.(*errors.CustomizedError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, customized.GetCode())
	assert.Equal(t, i18n.ERROR_ALREADY_PROCESSING, customized.Message())
}

func TestEnsureReprocessableAllowsSettledStatuses(t *testing.T) {
	for _, status := range []types.DocumentStatus{
		types.DOCUMENT_STATUS_PENDING,
		types.DOCUMENT_STATUS_INDEXED,
		types.DOCUMENT_STATUS_ERROR,
	} {
		err := ensureReprocessable(&types.Document{ID: "doc-1", Status: status})
		assert.NoError(t, err, "status %s", status)
	}
}
