package router

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiGroupIsRateLimited(t *testing.T) {
	app := fiber.New()
	NewApiRouter().InstallRouter(app)

	for i := 0; i < 50; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d should pass", i+1)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
