package console

import (
	"bytes"
	"testing"

	"github.com/flotiq/flotiq-setup/internal/config"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)

	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Info("Server listening at %s", "http://localhost:5989/callback")
	c.Success("%s added to %s", "FLOTIQ_API_KEY", ".env")
	c.Warning("%s already exists in %s, skipping", "FLOTIQ_API_KEY", ".env.development")
	c.Error("Failed to write %s", ".env")
	c.Key("Your FLOTIQ_API_KEY:", "ABC123")

	out := buf.String()
	assert.Contains(t, out, "Server listening at http://localhost:5989/callback")
	assert.Contains(t, out, "FLOTIQ_API_KEY added to .env")
	assert.Contains(t, out, "FLOTIQ_API_KEY already exists in .env.development, skipping")
	assert.Contains(t, out, "Failed to write .env")
	assert.Contains(t, out, "Your FLOTIQ_API_KEY:")
	assert.Contains(t, out, "ABC123")
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New(&config.SetupConfig{Silent: true}))
	assert.IsType(t, &Console{}, New(&config.SetupConfig{}))
}

func TestNop(t *testing.T) {
	var r Reporter = Nop{}
	r.Info("ignored")
	r.Key("label", "value")
	stop := r.Waiting("ignored")
	assert.NotNil(t, stop)
	stop()
}
