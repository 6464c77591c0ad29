package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/vk/streamgridgo/internal/row"
)

type nopPlugin struct{}

func (nopPlugin) InjectionShape() []*metainject.Entry      { return nil }
func (nopPlugin) ApplyInjection([]*metainject.Entry) error { return nil }
func (nopPlugin) Fields([]*row.Meta) (*row.Meta, error)     { return row.NewMeta(), nil }

type nopModule struct{ typeID string }

func (m nopModule) Register(c *Catalog) {
	c.Register(m.typeID, "does nothing", func() Plugin { return nopPlugin{} })
}

func TestCatalog(t *testing.T) {
	c := New(nopModule{"b"}, nopModule{"a"})

	assert.Equal(t, []string{"a", "b"}, c.Types())
	assert.Equal(t, "does nothing", c.Description("a"))

	p, err := c.New("a")
	require.NoError(t, err)
	assert.IsType(t, nopPlugin{}, p)

	_, err = c.New("missing")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.ErrorContains(t, err, `"missing"`)
}

func TestCatalog_DuplicateRegistrationPanics(t *testing.T) {
	assert.Panics(t, func() { New(nopModule{"a"}, nopModule{"a"}) })
}
