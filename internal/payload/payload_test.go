package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		kind Kind
		name string
		mime string
	}{
		{KindNone, "none", ""},
		{KindText, "text", MIMEText},
		{KindImage, "image", MIMEImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.mime, tt.kind.MIME())
		})
	}
}

func TestConstructors(t *testing.T) {
	p := Text("hello")
	assert.Equal(t, KindText, p.Kind)
	assert.Equal(t, "hello", p.String())
	assert.Equal(t, 5, p.Size())
	assert.False(t, p.IsNone())

	img := Image([]byte{0x89, 'P', 'N', 'G'})
	assert.Equal(t, KindImage, img.Kind)
	assert.Equal(t, "", img.String())

	assert.True(t, None.IsNone())
}
