package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/objexa/service/mailer/templates"
)

func TestEmbedHTML__DemoConfirmation(t *testing.T) {
	templates := templates.MustNewEngine(".")
	data := map[string]interface{}{
		"Name":         "Jane <Doe>",
		"Email":        "jane@clinic.test",
		"Phone":        "4155552671",
		"PracticeName": "Bright Smiles",
		"RootURL":      "https://objexa.test",
		"Year":         2026,
		"Footer":       "If you didn't request this demo, please ignore this email.",
	}
	rendered, err := templates.EmbedHTML("demo_confirmation.html", "wrapper.html", "Demo Title", data)
	require.NoError(t, err)

	html := string(rendered)
	assert.Contains(t, html, "<title>Demo Title</title>")
	assert.Contains(t, html, "Bright Smiles")
	assert.Contains(t, html, "Jane &lt;Doe&gt;")
	assert.Contains(t, html, `href="https://objexa.test"`)
	assert.Contains(t, html, "2026 Objexa Automation")
	assert.Contains(t, html, "please ignore this email")
}

func TestBytes__PasswordResetWithoutName(t *testing.T) {
	templates := templates.MustNewEngine(".")
	text, err := templates.Bytes("password_reset_confirmation.text", map[string]interface{}{
		"LoginURL": "https://objexa.test/auth.html",
	})
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hi,\n")
	assert.Contains(t, string(text), "https://objexa.test/auth.html")
}

func TestExtensionsTemplateEngine_Lookup(t *testing.T) {
	eng := templates.MustNewEngine(".")
	{
		tmpl, err := eng.Lookup("notfound.html")
		assert.Nil(t, tmpl)
		assert.Error(t, err)
	}
	{
		tmpl, err := eng.Lookup("notfound.text")
		assert.Nil(t, tmpl)
		assert.Error(t, err)
	}
	{
		tmpl, err := eng.Lookup("file.unknown")
		assert.Nil(t, tmpl)
		assert.Error(t, err)
	}
	{
		tmpl, err := eng.Lookup("wrapper.html")
		assert.NotNil(t, tmpl)
		assert.NoError(t, err)
	}
}
