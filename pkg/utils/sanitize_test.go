package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"plain", "Kapak açıldı", 0, "Kapak açıldı"},
		{"trim", "  dolu \n", 0, "dolu"},
		{"markup", "<b>dolu</b><script>x</script>", 0, "dolux"},
		{"control", "do\x00lu\x07", 0, "dolu"},
		{"newline", "satır1\nsatır2", 0, "satır1 satır2"},
		{"cut", "çöp kutusu", 3, "çöp"},
		{"only markup", "<br/>", 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeText(tc.in, tc.max))
		})
	}
}
