// internal/devices/catalog_test.go
package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookup(t *testing.T) {
	c := Default()

	d, ok := c.Lookup("iPhone")
	require.True(t, ok)
	assert.Equal(t, 320, d.Width)

	d, ok = c.Lookup("  ipad   PRO ")
	require.True(t, ok)
	assert.Equal(t, "iPad Pro", d.Name)

	assert.False(t, c.Contains("iPhone 555"))
}

func TestCatalog_ExtraEntriesOverride(t *testing.T) {
	c := Default(Device{Name: "iphone", Width: 1, Height: 2}, Device{Name: "Kiosk", Width: 1080, Height: 1920})

	d, ok := c.Lookup("iPhone")
	require.True(t, ok)
	assert.Equal(t, 1, d.Width)
	assert.True(t, c.Contains("kiosk"))
	assert.Contains(t, c.Names(), "Kiosk")
}

func TestDevice_Size(t *testing.T) {
	d := Device{Width: 390, Height: 844}

	w, h := d.Size(true)
	assert.Equal(t, [2]int{390, 844}, [2]int{w, h})

	w, h = d.Size(false)
	assert.Equal(t, [2]int{844, 390}, [2]int{w, h})
}
