// internal/devices/catalog.go
package devices

import (
	"sort"
	"strings"
	"unicode"
)

// Device holds the viewport parameters of an emulated device. Width and
// Height describe the portrait orientation.
type Device struct {
	Name              string  `mapstructure:"name" yaml:"name" json:"name"`
	Width             int     `mapstructure:"width" yaml:"width" json:"width"`
	Height            int     `mapstructure:"height" yaml:"height" json:"height"`
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor" yaml:"device_scale_factor" json:"deviceScaleFactor"`
	Mobile            bool    `mapstructure:"mobile" yaml:"mobile" json:"mobile"`
	UserAgent         string  `mapstructure:"user_agent" yaml:"user_agent" json:"userAgent"`
}

// Size returns the viewport for the requested orientation.
func (d Device) Size(portrait bool) (width, height int) {
	if portrait {
		return d.Width, d.Height
	}
	return d.Height, d.Width
}

const (
	uaIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Mobile/15E148 Safari/604.1"
	uaIPad    = "Mozilla/5.0 (iPad; CPU OS 14_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Mobile/15E148 Safari/604.1"
	uaAndroid = "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.91 Mobile Safari/537.36"
)

// Builtin is the catalog shipped with the binary.
var Builtin = []Device{
	{Name: "iPhone", Width: 320, Height: 480, DeviceScaleFactor: 1, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone 6", Width: 375, Height: 667, DeviceScaleFactor: 2, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone 6 Plus", Width: 414, Height: 736, DeviceScaleFactor: 3, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone 12", Width: 390, Height: 844, DeviceScaleFactor: 3, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone 12 Pro", Width: 390, Height: 844, DeviceScaleFactor: 3, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone 12 Pro Max", Width: 428, Height: 926, DeviceScaleFactor: 3, Mobile: true, UserAgent: uaIPhone},
	{Name: "iPhone SE", Width: 375, Height: 667, DeviceScaleFactor: 2, Mobile: true, UserAgent: uaIPhone},
	{Name: "Pixel 5", Width: 393, Height: 851, DeviceScaleFactor: 2.75, Mobile: true, UserAgent: uaAndroid},
	{Name: "Galaxy S21", Width: 360, Height: 800, DeviceScaleFactor: 3, Mobile: true, UserAgent: uaAndroid},
	{Name: "iPad", Width: 768, Height: 1024, DeviceScaleFactor: 2, Mobile: true, UserAgent: uaIPad},
	{Name: "iPad Pro", Width: 1024, Height: 1366, DeviceScaleFactor: 2, Mobile: true, UserAgent: uaIPad},
}

// Catalog resolves device names. Lookups ignore case and whitespace, so
// "iphone 12" and "iPhone12" find the same entry.
type Catalog struct {
	byKey map[string]Device
}

// NewCatalog builds a catalog. Later entries override earlier ones with the
// same normalized name.
func NewCatalog(devs ...Device) *Catalog {
	c := &Catalog{byKey: make(map[string]Device, len(devs))}
	for _, d := range devs {
		c.byKey[normalize(d.Name)] = d
	}
	return c
}

// Default returns the builtin catalog extended with extra entries.
func Default(extra ...Device) *Catalog {
	all := make([]Device, 0, len(Builtin)+len(extra))
	all = append(all, Builtin...)
	all = append(all, extra...)
	return NewCatalog(all...)
}

func (c *Catalog) Lookup(name string) (Device, bool) {
	d, ok := c.byKey[normalize(name)]
	return d, ok
}

func (c *Catalog) Contains(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names lists the catalog entries in alphabetical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byKey))
	for _, d := range c.byKey {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
