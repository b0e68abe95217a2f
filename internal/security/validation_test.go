package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAppName(t *testing.T) {
	t.Parallel()

	valid := []string{"Cursor", "Joplin Desktop", "firefox-esr", "app_2.0"}
	for _, name := range valid {
		assert.NoError(t, ValidateAppName(name), name)
	}

	invalid := []string{"", "..", "../etc", ".hidden", "a;b", "x\x00y", strings.Repeat("a", 256)}
	for _, name := range invalid {
		assert.Error(t, ValidateAppName(name), name)
	}
}

func TestValidateVersion(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateVersion(""))
	assert.NoError(t, ValidateVersion("1.2.3-1ubuntu2"))
	assert.NoError(t, ValidateVersion("2:1.4.99.1+dfsg~beta"))
	assert.Error(t, ValidateVersion("1.0; rm -rf /"))
}

func TestValidatePathWithin(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePathWithin("/home/u/Applications", "/home/u/Applications/Cursor"))
	assert.Error(t, ValidatePathWithin("/home/u/Applications", "/home/u/Applications/../.ssh"))
	assert.Error(t, ValidatePathWithin("/home/u/Applications", "/etc/passwd"))
}
