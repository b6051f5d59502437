package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linac-qa/backend/internal/audit"
	"github.com/linac-qa/backend/internal/storage/models"
	"github.com/linac-qa/backend/internal/storage/sqlite"
	"github.com/linac-qa/backend/internal/trend"
)

func newTrendTestApp(t *testing.T) (*fiber.App, int64) {
	t.Helper()

	client, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.InitSchema())

	unit := &models.Unit{Name: "Linac 1", PhotonEnergies: []string{"6MV"}, Active: true}
	require.NoError(t, client.InsertUnit(unit))

	store := trend.NewStore(client, audit.NewTrail(client), nil, 0)
	handler := NewTrendHandler(store, NewHub())

	app := fiber.New()
	// Stand-in for the session middleware: fill the locals slot it uses.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("auth_user", &models.User{ID: 1, Username: "tester", Role: "physicist"})
		return c.Next()
	})
	app.Post("/readings", handler.RecordReading)

	return app, unit.ID
}

func postReading(t *testing.T, app *fiber.App, body fiber.Map) (int, []byte) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, "/readings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestRecordReadingAcceptsZeroReading(t *testing.T) {
	app, unitID := newTrendTestApp(t)

	// A measured output of exactly 0 is a legitimate reading and must
	// not be mistaken for an absent field.
	status, body := postReading(t, app, fiber.Map{
		"unit_id":   unitID,
		"date":      "2024-03-01",
		"energy":    "6MV",
		"reading":   0.0,
		"reference": 100.0,
	})
	require.Equal(t, fiber.StatusCreated, status)

	var got struct {
		Deviation float64 `json:"deviation"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, -100.0, got.Deviation)
}

func TestRecordReadingMissingReadingRejected(t *testing.T) {
	app, unitID := newTrendTestApp(t)

	status, _ := postReading(t, app, fiber.Map{
		"unit_id":   unitID,
		"date":      "2024-03-01",
		"energy":    "6MV",
		"reference": 100.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRecordReadingZeroReferenceRejected(t *testing.T) {
	app, unitID := newTrendTestApp(t)

	status, _ := postReading(t, app, fiber.Map{
		"unit_id":   unitID,
		"date":      "2024-03-01",
		"energy":    "6MV",
		"reading":   99.5,
		"reference": 0.0,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
