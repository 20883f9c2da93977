package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, `ERROR: send failed\! \(status 400\)`, sanitize("ERROR: send failed! (status 400)", false))
	assert.Equal(t, `sender: 1555\-0001`, sanitize("sender: 1555-0001", false))
	assert.Equal(t, `[link](x)`, sanitize("[link](x)", true))
	assert.Equal(t, "", sanitize("", false))
}
